package model

import "time"

// Summary is the serializable record of a finished run.
// It is what reports print and what the history database stores.
type Summary struct {
	// ID is the run identifier.
	ID string `json:"id"`

	// URL is the normalized page URL, or the raw input if normalization failed.
	URL string `json:"url"`

	// PagePath is the absolute path of the written page. Empty on failure.
	PagePath string `json:"page_path,omitempty"`

	// AssetsDir is the path of the assets directory, if one was planned.
	AssetsDir string `json:"assets_dir,omitempty"`

	// Assets are the assets that were saved.
	Assets []AssetRecord `json:"assets"`

	// Discovered is the number of same-domain assets found on the page.
	Discovered int `json:"discovered"`

	// Bytes is the total number of asset bytes written.
	Bytes int64 `json:"bytes"`

	// ErrorKind names the failure class when the run failed.
	ErrorKind string `json:"error_kind,omitempty"`

	// Error is the failure message when the run failed.
	Error string `json:"error,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`
}

// AssetRecord describes one saved asset.
type AssetRecord struct {
	URL       string `json:"url"`
	Kind      string `json:"kind"`
	LocalPath string `json:"local_path"`
	Binary    bool   `json:"binary"`
	Size      int64  `json:"size"`
	Digest    string `json:"digest,omitempty"`
}

// NewSummary builds a Summary from a run.
// errKind and err describe the failure, if any; pass "" and nil on success.
func NewSummary(run *Run, errKind string, err error) *Summary {
	s := &Summary{
		ID:         run.ID,
		URL:        run.PageURL,
		AssetsDir:  run.AssetsDirPath,
		Assets:     make([]AssetRecord, 0),
		Discovered: len(run.Assets),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if s.URL == "" {
		s.URL = run.Request.URL
	}
	if s.FinishedAt.IsZero() {
		s.FinishedAt = time.Now()
	}

	for _, a := range run.SavedAssets() {
		s.Assets = append(s.Assets, AssetRecord{
			URL:       a.URL,
			Kind:      a.Kind.String(),
			LocalPath: a.LocalPath,
			Binary:    a.Binary,
			Size:      a.Size,
			Digest:    a.Digest,
		})
		s.Bytes += a.Size
	}

	if err != nil {
		s.ErrorKind = errKind
		s.Error = err.Error()
		return s
	}
	s.PagePath = run.PagePath
	return s
}

// Succeeded reports whether the run finished without error.
func (s *Summary) Succeeded() bool {
	return s.Error == ""
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
