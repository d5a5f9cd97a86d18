package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pageloader/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAssets(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs the run list as a Markdown table.
func (w *MarkdownWriter) WriteHistory(runs []*model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Download History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No downloads recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.StartedAt.Local().Format(timeLayout),
			statusText(run),
			truncateString(run.URL, 60),
			strconv.Itoa(len(run.Assets)),
			formatBytes(run.Bytes),
			"`" + run.ID + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Started", "Status", "URL", "Assets", "Size", "Run ID"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Page Download Summary")
	md.PlainText("")

	rows := [][]string{
		{"URL", summary.URL},
		{"Started", summary.StartedAt.Local().Format(timeLayout)},
		{"Duration", summary.Duration().Round(1e6).String()},
		{"Status", statusText(summary)},
	}
	if summary.Succeeded() {
		rows = append(rows, []string{"Page", "`" + summary.PagePath + "`"})
	}
	if summary.AssetsDir != "" && len(summary.Assets) > 0 {
		rows = append(rows, []string{"Assets directory", "`" + summary.AssetsDir + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if !summary.Succeeded() {
		md.Cautionf("Download failed (%s): %s", summary.ErrorKind, summary.Error)
		md.PlainText("")
	}
}

func statusText(summary *model.Summary) string {
	if summary.Succeeded() {
		return "✅ Saved"
	}
	return "❌ Failed"
}

func (w *MarkdownWriter) writeAssets(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Assets")
	md.PlainText("")

	md.BulletList(
		"Discovered: "+strconv.Itoa(summary.Discovered),
		"Saved: "+strconv.Itoa(len(summary.Assets))+" ("+formatBytes(summary.Bytes)+")",
	)
	md.PlainText("")

	if len(summary.Assets) == 0 {
		md.Note("No same-domain assets were saved.")
		md.PlainText("")
		return
	}

	w.writePieChart(md, summary)

	rows := make([][]string, len(summary.Assets))
	for i, a := range summary.Assets {
		rows[i] = []string{
			a.Kind,
			truncateString(a.URL, 60),
			"`" + a.LocalPath + "`",
			formatBytes(a.Size),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "URL", "Local path", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of saved assets by kind.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Saved Assets by Kind"),
		piechart.WithShowData(true),
	)

	counts := countByKind(summary)
	for _, kind := range kindOrder {
		if counts[kind] > 0 {
			chart.LabelAndIntValue(kind, uint64(counts[kind])) //nolint:gosec // counts are never negative
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pageloader](https://github.com/nao1215/pageloader)*")
}
