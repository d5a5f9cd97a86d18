// Package report renders run summaries and run history.
//
// Writers for three formats are provided:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: Markdown built with nao1215/markdown
//   - JSONWriter: JSON for scripts and other tools
//
// All writers implement the Writer interface and can be combined with
// NewMultiWriter.
package report
