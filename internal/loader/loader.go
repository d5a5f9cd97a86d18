// Package loader downloads a web page together with its same-domain assets.
//
// A Loader turns a model.Request into two outputs in the destination
// directory: "<name>.html", the page with asset references rewritten to
// local paths, and "<name>_files/", the saved assets. Both names are derived
// from the page URL.
//
// Every failure aborts the run. Fetch errors reach the caller exactly as the
// fetcher returned them; use KindOf to classify any returned error.
package loader

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/pageloader/internal/fetch"
	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/pipeline"
)

// Loader runs page downloads.
type Loader struct {
	// fetcher retrieves the page and its assets.
	fetcher fetch.Fetcher

	// observer receives run and asset events.
	observer Observer

	// logger is passed to the pipeline.
	logger *slog.Logger

	// concurrency is the number of assets fetched at the same time.
	concurrency int

	// newID generates run identifiers.
	newID func() string
}

// Option configures a Loader.
type Option func(*Loader)

// WithObserver sets the receiver of run events.
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithLogger sets the logger used by the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithConcurrency sets how many assets are fetched at the same time.
// The default of one downloads assets strictly in document order.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithIDGenerator replaces the run identifier generator.
func WithIDGenerator(fn func() string) Option {
	return func(l *Loader) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// New creates a Loader that fetches through f.
func New(f fetch.Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher:     f,
		observer:    NopObserver{},
		logger:      slog.Default(),
		concurrency: 1,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Download saves the requested page and returns the absolute path of the
// written page file.
func (l *Loader) Download(ctx context.Context, req model.Request) (string, error) {
	run, err := l.Run(ctx, req)
	if err != nil {
		return "", err
	}
	return run.PagePath, nil
}

// Run saves the requested page and returns the full run state.
// The run is returned even on failure so callers can report what happened.
func (l *Loader) Run(ctx context.Context, req model.Request) (*model.Run, error) {
	run := model.NewRun(l.newID(), req)
	l.observer.RunStarted(run)

	p := pipeline.New(pipeline.WithLogger(l.logger))
	p.AddSteps(l.steps()...)

	err := p.Execute(ctx, run)
	run.FinishedAt = time.Now()
	if err != nil {
		l.observer.RunFailed(run, err)
		return run, err
	}
	return run, nil
}
