package loader

import (
	"log/slog"

	"github.com/nao1215/pageloader/internal/asset"
	"github.com/nao1215/pageloader/internal/model"
)

// Observer receives the events of a run.
//
// Observers can report progress and failures but cannot change the outcome
// of a run. Asset events may arrive from several goroutines when assets are
// downloaded concurrently.
type Observer interface {
	asset.Progress

	// RunStarted is called before the first step.
	RunStarted(run *model.Run)

	// PageFetched is called once the page body has been received.
	PageFetched(run *model.Run)

	// AssetsDiscovered is called after discovery with run.Assets filled in.
	AssetsDiscovered(run *model.Run)

	// PageWritten is called after the page file has been written.
	PageWritten(run *model.Run)

	// RunFailed is called with the error that aborted the run.
	RunFailed(run *model.Run, err error)
}

// NopObserver ignores every event. It can be embedded to implement only
// some of the Observer methods.
type NopObserver struct{}

func (NopObserver) RunStarted(*model.Run)           {}
func (NopObserver) PageFetched(*model.Run)          {}
func (NopObserver) AssetsDiscovered(*model.Run)     {}
func (NopObserver) AssetStarted(*model.Asset)       {}
func (NopObserver) AssetSaved(*model.Asset)         {}
func (NopObserver) AssetFailed(*model.Asset, error) {}
func (NopObserver) PageWritten(*model.Run)          {}
func (NopObserver) RunFailed(*model.Run, error)     {}

// multiObserver fans events out to several observers in order.
type multiObserver []Observer

// MultiObserver returns an Observer that forwards every event to each of
// observers. Nil entries are skipped.
func MultiObserver(observers ...Observer) Observer {
	m := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) RunStarted(run *model.Run) {
	for _, o := range m {
		o.RunStarted(run)
	}
}

func (m multiObserver) PageFetched(run *model.Run) {
	for _, o := range m {
		o.PageFetched(run)
	}
}

func (m multiObserver) AssetsDiscovered(run *model.Run) {
	for _, o := range m {
		o.AssetsDiscovered(run)
	}
}

func (m multiObserver) AssetStarted(a *model.Asset) {
	for _, o := range m {
		o.AssetStarted(a)
	}
}

func (m multiObserver) AssetSaved(a *model.Asset) {
	for _, o := range m {
		o.AssetSaved(a)
	}
}

func (m multiObserver) AssetFailed(a *model.Asset, err error) {
	for _, o := range m {
		o.AssetFailed(a, err)
	}
}

func (m multiObserver) PageWritten(run *model.Run) {
	for _, o := range m {
		o.PageWritten(run)
	}
}

func (m multiObserver) RunFailed(run *model.Run, err error) {
	for _, o := range m {
		o.RunFailed(run, err)
	}
}

// LogObserver writes run events to a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger means slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) RunStarted(run *model.Run) {
	o.logger.Debug("starting download",
		"run_id", run.ID,
		"url", run.Request.URL,
		"destination", run.Request.DestinationDir,
	)
}

func (o *LogObserver) PageFetched(run *model.Run) {
	o.logger.Info("page fetched",
		"url", run.PageURL,
		"status", run.Page.StatusCode,
		"bytes", len(run.Page.Raw),
	)
}

func (o *LogObserver) AssetsDiscovered(run *model.Run) {
	o.logger.Info("assets discovered",
		"url", run.PageURL,
		"count", len(run.Assets),
	)
}

func (o *LogObserver) AssetStarted(a *model.Asset) {
	o.logger.Debug("downloading asset", "url", a.URL, "kind", a.Kind.String())
}

func (o *LogObserver) AssetSaved(a *model.Asset) {
	o.logger.Debug("asset saved",
		"url", a.URL,
		"path", a.LocalPath,
		"size", a.Size,
		"binary", a.Binary,
	)
}

func (o *LogObserver) AssetFailed(a *model.Asset, err error) {
	o.logger.Debug("asset download failed", "url", a.URL, "error", err)
}

func (o *LogObserver) PageWritten(run *model.Run) {
	o.logger.Info("page written",
		"path", run.PagePath,
		"assets", len(run.SavedAssets()),
	)
}

// RunFailed logs the underlying error at debug level and a one-line
// warning naming the URL and the failure kind.
func (o *LogObserver) RunFailed(run *model.Run, err error) {
	url := run.PageURL
	if url == "" {
		url = run.Request.URL
	}
	o.logger.Debug("run failed", "run_id", run.ID, "error", err)
	o.logger.Warn("download failed",
		"url", url,
		"kind", KindOf(err).String(),
	)
}
