package report

import (
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sonarreport/internal/model"
)

// MarkdownWriter outputs a Markdown companion of the report: a severity
// summary followed by the same issue table as the HTML document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(project string, issues []*model.Issue) (int, error) {
	summary := model.Summarize(issues)
	md := markdown.NewMarkdown(w.output)

	md.H1("SonarQube Issue Report For " + markdownCell(project))
	md.PlainText("")

	w.writeSummary(md, summary)
	w.writeIssues(md, issues)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary model.Summary) {
	md.H2("Severity Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(model.Severities())+2)
	for _, lvl := range model.Severities() {
		rows = append(rows, []string{lvl.String(), strconv.Itoa(summary.Count(lvl))})
	}
	if n := summary.Count(model.SeverityUnknown); n > 0 {
		rows = append(rows, []string{model.SeverityUnknown.String(), strconv.Itoa(n)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(summary.Total) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.HasIssues() {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)

	levels := append(model.Severities(), model.SeverityUnknown)
	for _, lvl := range levels {
		if n := summary.Count(lvl); n > 0 {
			chart.LabelAndIntValue(lvl.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the worst severity present.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary model.Summary) {
	switch summary.Worst() {
	case model.SeverityBlocker:
		md.Cautionf("%d blocker issue(s) must be fixed before release.",
			summary.Count(model.SeverityBlocker))
	case model.SeverityCritical:
		md.Warningf("%d critical issue(s) should be addressed.",
			summary.Count(model.SeverityCritical))
	case model.SeverityMajor:
		md.Importantf("%d major issue(s) found.", summary.Count(model.SeverityMajor))
	case "":
		md.Tip("No issues reported.")
	default:
		md.Note("Only minor, informational or unclassified issues reported.")
	}
	md.PlainText("")
}

// writeIssues writes the issue table in input order.
func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, issues []*model.Issue) {
	md.H2("Issues")
	md.PlainText("")

	if len(issues) == 0 {
		md.PlainText("No issues reported.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		if issue == nil {
			continue
		}
		rows = append(rows, []string{
			markdownCell(issue.Type),
			markdownCell(issue.Level().String()),
			markdownCell(issue.Message),
			markdownCell(issue.Component),
			issue.LineText(),
		})
	}

	md.Table(markdown.TableSet{
		Header: Columns,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sonarreport](https://github.com/nao1215/sonarreport)*")
}

// markdownCell makes free text safe for a single Markdown table cell.
// Markup characters are escaped and line breaks collapsed so that the text
// can neither open HTML elements nor end the row.
func markdownCell(s string) string {
	s = html.EscapeString(s)
	s = strings.NewReplacer(
		"|", `\|`,
		"\r\n", " ",
		"\n", " ",
		"\r", " ",
	).Replace(s)
	return s
}
