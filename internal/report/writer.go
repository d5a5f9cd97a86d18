package report

import (
	"fmt"
	"io"

	"github.com/nao1215/pageloader/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the summary of a single run.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)

	// WriteHistory outputs a list of past runs, newest first.
	WriteHistory(runs []*model.Summary) (int, error)
}

// MultiWriter writes to multiple Writers in order and stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the run list to all configured Writers.
func (m *MultiWriter) WriteHistory(runs []*model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(runs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is the timestamp format of the text and Markdown reports.
const timeLayout = "2006-01-02 15:04:05 MST"

// kindOrder is the display order of asset kinds.
var kindOrder = []string{
	model.KindImage.String(),
	model.KindLink.String(),
	model.KindScript.String(),
}

// countByKind returns the number of saved assets of each kind.
func countByKind(summary *model.Summary) map[string]int {
	counts := make(map[string]int, len(kindOrder))
	for _, a := range summary.Assets {
		counts[a.Kind]++
	}
	return counts
}

// status returns a one-word outcome of the run.
func status(summary *model.Summary) string {
	if summary.Succeeded() {
		return "saved"
	}
	return "failed"
}

// formatBytes renders a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
