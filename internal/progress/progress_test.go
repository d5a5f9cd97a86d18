package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/pageloader/internal/loader"
	"github.com/nao1215/pageloader/internal/model"
)

// syncBuffer is a bytes.Buffer safe for use by the bar's refresh goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func runWithAssets(n int) *model.Run {
	run := model.NewRun("id", model.Request{URL: "https://example.com"})
	run.PageName = "example-com.html"
	for range n {
		run.Assets = append(run.Assets, &model.Asset{Kind: model.KindImage})
	}
	return run
}

func TestBar_ImplementsObserver(t *testing.T) {
	t.Parallel()

	var _ loader.Observer = New(&syncBuffer{})
}

func TestBar_Success(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	b := New(out)
	run := runWithAssets(3)

	b.RunStarted(run)
	b.AssetsDiscovered(run)
	for _, a := range run.Assets {
		b.AssetStarted(a)
		b.AssetSaved(a)
	}
	b.PageWritten(run)

	saved, failed := b.Counts()
	if saved != 3 || failed != 0 {
		t.Errorf("Counts() = %d, %d; want 3, 0", saved, failed)
	}
	output := out.String()
	if !strings.Contains(output, "Downloading example-com.html") {
		t.Errorf("expected prefix in output, got %q", output)
	}
	if !strings.Contains(output, "3 / 3") {
		t.Errorf("expected final counters in output, got %q", output)
	}
}

func TestBar_Failure(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	b := New(out)
	run := runWithAssets(3)

	b.AssetsDiscovered(run)
	b.AssetSaved(run.Assets[0])
	b.AssetFailed(run.Assets[1], errors.New("connection refused"))
	b.RunFailed(run, errors.New("connection refused"))

	saved, failed := b.Counts()
	if saved != 1 || failed != 1 {
		t.Errorf("Counts() = %d, %d; want 1, 1", saved, failed)
	}
}

func TestBar_NoAssets(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	b := New(out, WithTerminal(false))
	run := runWithAssets(0)

	b.AssetsDiscovered(run)
	b.PageWritten(run)

	if out.String() != "" {
		t.Errorf("expected no output without assets, got %q", out.String())
	}
}

func TestBar_ConcurrentEvents(t *testing.T) {
	t.Parallel()

	b := New(&syncBuffer{})
	run := runWithAssets(50)
	b.AssetsDiscovered(run)

	var wg sync.WaitGroup
	for _, a := range run.Assets {
		wg.Go(func() {
			b.AssetStarted(a)
			b.AssetSaved(a)
		})
	}
	wg.Wait()
	b.PageWritten(run)

	if saved, _ := b.Counts(); saved != 50 {
		t.Errorf("saved = %d, want 50", saved)
	}
}
