package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pageloader/internal/model"
)

// SimpleWriter outputs plain text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every saved asset instead of only the counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-asset listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeAssets(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs one line per run.
func (w *SimpleWriter) WriteHistory(runs []*model.Summary) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No downloads recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}

	for _, run := range runs {
		fmt.Fprintf(&sb, "%s  %-6s  %-40s  %3d assets  %s\n",
			run.StartedAt.Local().Format(timeLayout),
			status(run),
			truncateString(run.URL, 40),
			len(run.Assets),
			run.ID,
		)
	}
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PAGELOADER SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "URL:        %s\n", summary.URL)
	fmt.Fprintf(sb, "Started:    %s\n", summary.StartedAt.Local().Format(timeLayout))
	fmt.Fprintf(sb, "Duration:   %s\n", summary.Duration().Round(1e6))

	if summary.Succeeded() {
		sb.WriteString("Status:     Saved\n")
		fmt.Fprintf(sb, "Page:       %s\n", summary.PagePath)
	} else {
		fmt.Fprintf(sb, "Status:     FAILED (%s) - %s\n", summary.ErrorKind, summary.Error)
	}
	if summary.AssetsDir != "" && len(summary.Assets) > 0 {
		fmt.Fprintf(sb, "Assets dir: %s\n", summary.AssetsDir)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAssets(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ASSETS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Discovered: %d\n", summary.Discovered)
	fmt.Fprintf(sb, "  Saved:      %d (%s)\n", len(summary.Assets), formatBytes(summary.Bytes))
	counts := countByKind(summary)
	for _, kind := range kindOrder {
		fmt.Fprintf(sb, "  %-11s %d\n", kind+":", counts[kind])
	}
	sb.WriteString("\n")

	if !w.verbose || len(summary.Assets) == 0 {
		return
	}
	for _, a := range summary.Assets {
		fmt.Fprintf(sb, "  [%s] %s\n", a.Kind, a.URL)
		fmt.Fprintf(sb, "    -> %s (%s)\n", a.LocalPath, formatBytes(a.Size))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
