package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pageloader/internal/model"
)

// createTestSummary creates a successful run summary with sample assets.
func createTestSummary() *model.Summary {
	started := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	return &model.Summary{
		ID:         "5f0c8a2e-run",
		URL:        "https://ru.hexlet.io/courses",
		PagePath:   "/tmp/ru-hexlet-io-courses.html",
		AssetsDir:  "/tmp/ru-hexlet-io-courses_files",
		Discovered: 3,
		Bytes:      2048 + 100,
		Assets: []model.AssetRecord{
			{URL: "https://ru.hexlet.io/assets/professions/nodejs.png", Kind: "img", LocalPath: "ru-hexlet-io-courses_files/ru-hexlet-io-assets-professions-nodejs.png", Binary: true, Size: 2048},
			{URL: "https://ru.hexlet.io/assets/application.css", Kind: "link", LocalPath: "ru-hexlet-io-courses_files/ru-hexlet-io-assets-application.css", Size: 100},
			{URL: "https://ru.hexlet.io/packs/js/runtime.js", Kind: "script", LocalPath: "ru-hexlet-io-courses_files/ru-hexlet-io-packs-js-runtime.js", Size: 0},
		},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}
}

// createFailedSummary creates a run summary that ended with an HTTP error.
func createFailedSummary() *model.Summary {
	started := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	return &model.Summary{
		ID:         "failed-run",
		URL:        "https://example.com/missing",
		Assets:     []model.AssetRecord{},
		ErrorKind:  "HTTPStatusFailure",
		Error:      "request to https://example.com/missing returned 404 Not Found",
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes successful run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("returned %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"PAGELOADER SUMMARY",
			"https://ru.hexlet.io/courses",
			"Status:     Saved",
			"/tmp/ru-hexlet-io-courses.html",
			"Discovered: 3",
			"Saved:      3 (2.1 KiB)",
			"img:",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
		if strings.Contains(output, "nodejs.png") {
			t.Error("asset list should only be shown in verbose mode")
		}
	})

	t.Run("verbose lists assets", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "-> ru-hexlet-io-courses_files/ru-hexlet-io-assets-professions-nodejs.png (2.0 KiB)") {
			t.Errorf("expected asset line in output:\n%s", buf.String())
		}
	})

	t.Run("writes failed run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createFailedSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "FAILED (HTTPStatusFailure)") {
			t.Errorf("expected failure status:\n%s", output)
		}
		if strings.Contains(output, "Page:") {
			t.Errorf("failed run must not print a page path:\n%s", output)
		}
	})

	t.Run("writes history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []*model.Summary{createFailedSummary(), createTestSummary()}
		if _, err := NewSimpleWriter(&buf).WriteHistory(runs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), buf.String())
		}
		if !strings.Contains(lines[0], "failed") || !strings.Contains(lines[0], "failed-run") {
			t.Errorf("unexpected first line: %s", lines[0])
		}
		if !strings.Contains(lines[1], "saved") || !strings.Contains(lines[1], "3 assets") {
			t.Errorf("unexpected second line: %s", lines[1])
		}
	})

	t.Run("writes empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "No downloads recorded.\n" {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes successful run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Page Download Summary",
			"## Assets",
			"✅ Saved",
			"mermaid",
			"pie",
			"ru-hexlet-io-packs-js-runtime.js",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("writes failed run with alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createFailedSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Errorf("expected caution alert:\n%s", output)
		}
		if !strings.Contains(output, "No same-domain assets were saved.") {
			t.Errorf("expected no-assets note:\n%s", output)
		}
		if strings.Contains(output, "mermaid") {
			t.Errorf("no chart expected without assets:\n%s", output)
		}
	})

	t.Run("writes history table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []*model.Summary{createTestSummary(), createFailedSummary()}
		if _, err := NewMarkdownWriter(&buf).WriteHistory(runs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Download History") {
			t.Errorf("expected history header:\n%s", output)
		}
		if !strings.Contains(output, "`5f0c8a2e-run`") || !strings.Contains(output, "`failed-run`") {
			t.Errorf("expected run ids:\n%s", output)
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("v1.2.3"))
		if _, err := w.Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc JSONReport
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Version != "v1.2.3" {
			t.Errorf("Version = %q", doc.Version)
		}
		if doc.Run == nil || doc.Run.URL != "https://ru.hexlet.io/courses" || len(doc.Run.Assets) != 3 {
			t.Errorf("unexpected run: %+v", doc.Run)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("compact output ends with newline", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createFailedSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Count(output, "\n") != 1 || !strings.HasSuffix(output, "\n") {
			t.Errorf("expected a single line, got %q", output)
		}
		if !strings.Contains(output, `"error_kind":"HTTPStatusFailure"`) {
			t.Errorf("expected error kind, got %s", output)
		}
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"runs":[]`) {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.Summary) (int, error)          { return 0, errors.New("disk full") }
func (failingWriter) WriteHistory([]*model.Summary) (int, error) { return 0, errors.New("disk full") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
		n, err := m.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() || a.Len() == 0 || b.Len() == 0 {
			t.Errorf("total = %d, outputs = %d and %d", n, a.Len(), b.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var b bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewSimpleWriter(&b))
		if _, err := m.WriteHistory(nil); err == nil {
			t.Error("expected error")
		}
		if b.Len() != 0 {
			t.Error("writer after the failing one must not be called")
		}
	})
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := truncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateString("https://example.com/very/long", 12); got != "https://e..." {
		t.Errorf("got %q", got)
	}
}
