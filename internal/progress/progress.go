// Package progress shows asset download progress as a terminal bar.
package progress

import (
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/nao1215/pageloader/internal/loader"
	"github.com/nao1215/pageloader/internal/model"
)

// barTemplate is the layout of the progress bar.
const barTemplate = `{{ string . "prefix" }} {{ counters . }} {{ bar . }} {{ percent . }} {{ etime . }}`

// Bar is a loader.Observer that draws one progress bar per run, advancing
// once per saved asset. Runs without assets draw nothing.
type Bar struct {
	loader.NopObserver

	mu       sync.Mutex
	out      io.Writer
	terminal bool
	bar      *pb.ProgressBar
	saved    int
	failed   int
}

// Option configures a Bar.
type Option func(*Bar)

// WithTerminal forces terminal mode, in which the bar redraws in place.
func WithTerminal(terminal bool) Option {
	return func(b *Bar) {
		b.terminal = terminal
	}
}

// New creates a Bar that draws to out.
func New(out io.Writer, opts ...Option) *Bar {
	b := &Bar{out: out}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AssetsDiscovered starts the bar with one step per discovered asset.
func (b *Bar) AssetsDiscovered(run *model.Run) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finishLocked()
	b.saved, b.failed = 0, 0
	if len(run.Assets) == 0 {
		return
	}

	bar := pb.New(len(run.Assets))
	bar.SetTemplateString(barTemplate)
	bar.Set("prefix", "Downloading "+run.PageName)
	bar.SetWriter(b.out)
	bar.SetMaxWidth(100)
	bar.Set(pb.Terminal, b.terminal)
	bar.SetRefreshRate(200 * time.Millisecond)
	b.bar = bar.Start()
}

// AssetSaved advances the bar by one.
func (b *Bar) AssetSaved(*model.Asset) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.saved++
	if b.bar != nil {
		b.bar.Increment()
	}
}

// AssetFailed stops the bar where it is.
func (b *Bar) AssetFailed(*model.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failed++
	b.finishLocked()
}

// PageWritten finishes the bar.
func (b *Bar) PageWritten(*model.Run) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finishLocked()
}

// RunFailed finishes the bar.
func (b *Bar) RunFailed(*model.Run, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finishLocked()
}

// Counts returns the number of assets saved and failed in the current run.
func (b *Bar) Counts() (saved, failed int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.saved, b.failed
}

func (b *Bar) finishLocked() {
	if b.bar == nil {
		return
	}
	b.bar.Finish()
	b.bar = nil
}
