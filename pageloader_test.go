package pageloader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/pageloader"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(`<html><head></head><body><img src="/logo.png"></body></html>`))
		case "/logo.png":
			_, _ = w.Write([]byte("png"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownload(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	dest := t.TempDir()

	path, err := pageloader.Download(context.Background(), srv.URL+"/", dest, pageloader.WithConcurrency(2))
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if filepath.Dir(path) != dest {
		t.Errorf("page written to %q, want it inside %q", path, dest)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("page missing: %v", err)
	}
}

func TestDownloadErrors(t *testing.T) {
	t.Parallel()

	srv := newServer(t)

	t.Run("missing page", func(t *testing.T) {
		t.Parallel()
		_, err := pageloader.Download(context.Background(), srv.URL+"/missing", t.TempDir())
		if !errors.Is(err, pageloader.ErrHTTPStatus) || pageloader.KindOf(err) != pageloader.KindHTTPStatusFailure {
			t.Errorf("expected an HTTP status failure, got %v", err)
		}
	})

	t.Run("missing destination", func(t *testing.T) {
		t.Parallel()
		_, err := pageloader.Download(context.Background(), srv.URL+"/", filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, pageloader.ErrDirectoryNotFound) {
			t.Errorf("expected ErrDirectoryNotFound, got %v", err)
		}
	})

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()
		_, err := pageloader.Download(context.Background(), srv.URL+"/", t.TempDir(), pageloader.WithProxy("nope"))
		if err == nil {
			t.Error("expected an error for an invalid proxy address")
		}
	})
}

func TestDownloadDefaultsToWorkingDirectory(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path, err := pageloader.Download(context.Background(), srv.URL+"/", "")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if got != resolved {
		t.Errorf("page written to %q, want %q", got, resolved)
	}
}
