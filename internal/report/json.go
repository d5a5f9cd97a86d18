package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/pageloader/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// version is recorded in every document. Empty omits it.
	version string

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in every document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps a run summary with output metadata.
type JSONReport struct {
	// Version is the pageloader version that wrote the report.
	Version string `json:"version,omitempty"`

	// Run is the run summary.
	Run *model.Summary `json:"run"`
}

// JSONHistory wraps a run list with output metadata.
type JSONHistory struct {
	Version string           `json:"version,omitempty"`
	Runs    []*model.Summary `json:"runs"`
}

// Write outputs the run summary as a JSONReport.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Run: summary})
}

// WriteHistory outputs the run list as a JSONHistory.
func (w *JSONWriter) WriteHistory(runs []*model.Summary) (int, error) {
	if runs == nil {
		runs = []*model.Summary{}
	}
	return w.writeJSON(&JSONHistory{Version: w.version, Runs: runs})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}
