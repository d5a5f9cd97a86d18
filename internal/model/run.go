package model

import (
	"time"

	"golang.org/x/net/html"
)

// Request is the input of one loader run.
// It is created at invocation and never modified.
type Request struct {
	// URL is the page URL as given by the user; it may lack a scheme.
	URL string

	// DestinationDir is the directory the page and its assets are written to.
	DestinationDir string
}

// Run holds the state of a single page download.
// It is owned by the loader for the duration of one invocation and
// filled in step by step by the pipeline.
type Run struct {
	// ID uniquely identifies the run in logs and history.
	ID string

	// Request is the immutable input of the run.
	Request Request

	// OutputDir is the absolute destination directory.
	OutputDir string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended, successfully or not.
	FinishedAt time.Time

	// PageURL is the normalized page URL.
	PageURL string

	// Page is the fetched page response.
	Page *Page

	// PageName is the generated file name of the page ("<name>.html").
	PageName string

	// PagePath is the absolute path the page is written to.
	PagePath string

	// AssetsDirName is the generated name of the assets directory ("<name>_files").
	AssetsDirName string

	// AssetsDirPath is the path of the assets directory.
	AssetsDirPath string

	// Document is the page's parse tree. Discovery and download mutate it in place.
	Document *html.Node

	// Assets are the discovered same-domain assets in document order.
	Assets []*Asset

	// Rendered is the serialized page, ready to be written.
	Rendered []byte

	// PerformedSteps lists the names of the pipeline steps that completed.
	PerformedSteps []string
}

// NewRun creates a Run for the given request.
func NewRun(id string, req Request) *Run {
	return &Run{
		ID:             id,
		Request:        req,
		StartedAt:      time.Now(),
		Assets:         make([]*Asset, 0),
		PerformedSteps: make([]string, 0),
	}
}

// BytesSaved returns the total size of the saved assets.
func (r *Run) BytesSaved() int64 {
	var total int64
	for _, a := range r.Assets {
		total += a.Size
	}
	return total
}

// SavedAssets returns the assets that were written to disk.
func (r *Run) SavedAssets() []*Asset {
	saved := make([]*Asset, 0, len(r.Assets))
	for _, a := range r.Assets {
		if a.LocalPath != "" {
			saved = append(saved, a)
		}
	}
	return saved
}
