package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/pageloader/internal/history"
	"github.com/nao1215/pageloader/internal/naming"
	"github.com/nao1215/pageloader/internal/report"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
<title>Courses</title>
<link rel="stylesheet" href="/assets/application.css">
</head>
<body>
<img src="/assets/professions/nodejs.png">
<img src="https://cdn.example/banner.png">
<script src="/packs/js/runtime.js"></script>
</body>
</html>`

// testSite serves a page with three same-domain assets and records requests.
type testSite struct {
	*httptest.Server

	mu      sync.Mutex
	paths   []string
	cookies map[string]string
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()

	s := &testSite{cookies: make(map[string]string)}
	mux := http.NewServeMux()
	mux.HandleFunc("/courses", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	})
	mux.HandleFunc("/assets/application.css", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("body { margin: 0 }"))
	})
	mux.HandleFunc("/assets/professions/nodejs.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/packs/js/runtime.js", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("console.log('runtime')"))
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.paths = append(s.paths, r.URL.Path)
		s.cookies[r.URL.Path] = r.Header.Get("Cookie")
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testSite) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

func (s *testSite) cookie(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cookies[path]
}

func (s *testSite) host() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// testEnv holds the directories a CLI test runs against.
type testEnv struct {
	outputDir  string
	historyDir string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		outputDir:  t.TempDir(),
		historyDir: t.TempDir(),
		configPath: filepath.Join(t.TempDir(), ".pageloader"),
	}
	if err := os.WriteFile(env.configPath, nil, 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// args returns the flags that keep a run inside the test directories.
func (e *testEnv) args(extra ...string) []string {
	return append([]string{
		"--no-progress",
		"--history-dir", e.historyDir,
		"--config", e.configPath,
	}, extra...)
}

// executeRoot runs the root command and returns its output.
func executeRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

func TestDownloadCmd(t *testing.T) {
	t.Parallel()

	t.Run("saves page and assets", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)
		pageURL := site.URL + "/courses"

		stdout, _, err := executeRoot(t, env.args(pageURL, "-o", env.outputDir)...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		pagePath := filepath.Join(env.outputDir, naming.GenerateName(pageURL, naming.PageExtension))
		if stdout != "Page was downloaded as "+pagePath+"\n" {
			t.Errorf("unexpected stdout: %q", stdout)
		}

		page, err := os.ReadFile(pagePath) //nolint:gosec // test file in temp dir
		if err != nil {
			t.Fatalf("page not written: %v", err)
		}
		assetsDirName := naming.GenerateName(pageURL, naming.AssetsDirSuffix)
		if !strings.Contains(string(page), `src="`+assetsDirName+`/`) {
			t.Errorf("page does not reference local assets:\n%s", page)
		}
		if !strings.Contains(string(page), "https://cdn.example/banner.png") {
			t.Errorf("foreign asset reference must stay unchanged:\n%s", page)
		}

		entries, err := os.ReadDir(filepath.Join(env.outputDir, assetsDirName))
		if err != nil {
			t.Fatalf("assets dir not created: %v", err)
		}
		if len(entries) != 3 {
			t.Errorf("expected 3 saved assets, got %d", len(entries))
		}

		store, err := history.Open(env.historyDir, history.Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("history not written: %v", err)
		}
		defer store.Close()
		runs, err := store.List(t.Context(), "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 || !runs[0].Succeeded() || len(runs[0].Assets) != 3 {
			t.Errorf("unexpected history: %+v", runs)
		}
	})

	t.Run("download subcommand", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)

		args := append([]string{"download"}, env.args(site.URL+"/courses", "-o", env.outputDir)...)
		stdout, _, err := executeRoot(t, args...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(stdout, "Page was downloaded as ") {
			t.Errorf("unexpected stdout: %q", stdout)
		}
	})

	t.Run("json report keeps stdout parseable", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)

		stdout, stderr, err := executeRoot(t, env.args(site.URL+"/courses", "-o", env.outputDir, "--json")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc report.JSONReport
		if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
			t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
		}
		if doc.Run == nil || len(doc.Run.Assets) != 3 || doc.Run.Discovered != 3 {
			t.Errorf("unexpected report: %+v", doc.Run)
		}
		if !strings.Contains(stderr, "Page was downloaded as") {
			t.Errorf("expected success message on stderr, got %q", stderr)
		}
	})

	t.Run("markdown report file", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)
		reportPath := filepath.Join(t.TempDir(), "reports", "run.md")

		stdout, _, err := executeRoot(t, env.args(site.URL+"/courses", "-o", env.outputDir, "-m", "--report-file", reportPath)...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(stdout, "Page was downloaded as ") {
			t.Errorf("unexpected stdout: %q", stdout)
		}

		content, err := os.ReadFile(reportPath) //nolint:gosec // test file in temp dir
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(content), "# Page Download Summary") {
			t.Errorf("unexpected report:\n%s", content)
		}
	})

	t.Run("missing destination makes no request", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)
		missing := filepath.Join(env.outputDir, "does-not-exist")

		_, _, err := executeRoot(t, env.args(site.URL+"/courses", "-o", missing)...)
		if got := exitCode(err); got != exitDirectoryNotFound {
			t.Errorf("exitCode = %d, want %d (err: %v)", got, exitDirectoryNotFound, err)
		}
		if n := site.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}

		store, err := history.Open(env.historyDir, history.Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("failed run not recorded: %v", err)
		}
		defer store.Close()
		runs, err := store.List(t.Context(), "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 || runs[0].ErrorKind != "DirectoryNotFound" {
			t.Errorf("unexpected history: %+v", runs)
		}
	})

	t.Run("http error status", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)

		_, _, err := executeRoot(t, env.args(site.URL+"/missing", "-o", env.outputDir)...)
		if got := exitCode(err); got != exitHTTPStatusFailure {
			t.Errorf("exitCode = %d, want %d (err: %v)", got, exitHTTPStatusFailure, err)
		}
	})

	t.Run("existing page is not overwritten", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)
		args := env.args(site.URL+"/courses", "-o", env.outputDir, "--no-history")

		if _, _, err := executeRoot(t, args...); err != nil {
			t.Fatalf("first download failed: %v", err)
		}
		_, _, err := executeRoot(t, args...)
		if got := exitCode(err); got != exitOutputAlreadyExists {
			t.Errorf("exitCode = %d, want %d (err: %v)", got, exitOutputAlreadyExists, err)
		}
		if _, err := os.Stat(filepath.Join(env.historyDir, history.FileName)); !os.IsNotExist(err) {
			t.Error("--no-history must not create the history database")
		}
	})

	t.Run("invalid flag value", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)

		_, _, err := executeRoot(t, env.args(site.URL+"/courses", "-o", env.outputDir, "-c", "0")...)
		if got := exitCode(err); got != exitConfiguration {
			t.Errorf("exitCode = %d, want %d (err: %v)", got, exitConfiguration, err)
		}
		if n := site.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.configPath = filepath.Join(t.TempDir(), "absent.yaml")

		_, _, err := executeRoot(t, env.args("https://example.com", "-o", env.outputDir)...)
		if got := exitCode(err); got != exitConfiguration {
			t.Errorf("exitCode = %d, want %d (err: %v)", got, exitConfiguration, err)
		}
	})

	t.Run("site cookie from config file", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t)
		env := newTestEnv(t)
		content := "sites:\n  \"" + site.host() + "\":\n    cookie: \"session_id=abc123\"\n"
		if err := os.WriteFile(env.configPath, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, _, err := executeRoot(t, env.args(site.URL+"/courses", "-o", env.outputDir)...); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, path := range []string{"/courses", "/packs/js/runtime.js"} {
			if got := site.cookie(path); got != "session_id=abc123" {
				t.Errorf("cookie for %s = %q", path, got)
			}
		}
	})

	t.Run("no argument prints help", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Usage:") {
			t.Errorf("expected help output, got %q", stdout)
		}
	})
}
