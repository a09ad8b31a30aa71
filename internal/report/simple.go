package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/sonarreport/internal/model"
)

// SimpleWriter outputs a plain-text summary of a report for terminal
// display: severity counts and, when verbose, one line per issue.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether severity levels with no issues are shown.
	showEmpty bool

	// verbose lists every issue below the summary.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show levels without issues.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the per-issue listing.
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

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(project string, issues []*model.Issue) (int, error) {
	var sb strings.Builder
	summary := model.Summarize(issues)

	w.writeHeader(&sb, project)
	w.writeSummary(&sb, summary)
	if w.verbose {
		w.writeIssues(&sb, issues)
	}

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, project string) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "SonarQube Issue Report For %s\n", project)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writeSummary writes the severity counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary model.Summary) {
	levels := append(model.Severities(), model.SeverityUnknown)
	for _, lvl := range levels {
		n := summary.Count(lvl)
		if n == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "  %-9s %d\n", lvl.String()+":", n)
	}
	fmt.Fprintf(sb, "  %-9s %d issues\n\n", "TOTAL:", summary.Total)
}

// writeIssues writes one line per issue, in input order.
func (w *SimpleWriter) writeIssues(sb *strings.Builder, issues []*model.Issue) {
	for _, issue := range issues {
		if issue == nil {
			continue
		}
		location := issue.Component
		if line := issue.LineText(); line != "" {
			location += ":" + line
		}
		fmt.Fprintf(sb, "  [%s] %s %s\n", w.indicator(issue.Level()), location, oneLine(issue.Message))
	}
	if len(issues) > 0 {
		sb.WriteString("\n")
	}
}

// indicator returns a short visual marker for the severity level.
func (w *SimpleWriter) indicator(severity model.Severity) string {
	switch severity.Level() {
	case model.SeverityBlocker:
		return "!!!"
	case model.SeverityCritical:
		return "!!"
	case model.SeverityMajor:
		return "!"
	case model.SeverityMinor:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// oneLine collapses line breaks so that each issue stays on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
