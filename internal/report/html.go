package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/nao1215/sonarreport/internal/model"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// ErrInvalidInput is returned when the issue sequence handed to the renderer
// is structurally invalid. Missing or unrecognized field values are never
// invalid input; they render as empty cells or with the fallback color.
var ErrInvalidInput = errors.New("invalid renderer input")

// Columns is the fixed column layout of the issue table.
var Columns = []string{"Type", "Severity", "Message", "File", "Line"}

// htmlTemplate is parsed once; the template is immutable after parsing and
// safe for concurrent execution.
var htmlTemplate = template.Must(
	template.New("report.html.tmpl").ParseFS(templateFS, "templates/report.html.tmpl"),
)

// htmlDocument is the data handed to the HTML template.
type htmlDocument struct {
	Project string
	Rows    []htmlRow
}

// htmlRow is one table row. Every string is escaped by html/template when
// the row is executed; Color comes from the static severity table only.
type htmlRow struct {
	Type     string
	Severity string
	Message  string
	File     string
	Line     string
	Color    template.CSS
}

// HTMLRenderer renders issue sequences as a self-contained HTML document.
//
// Output is a pure function of the project identifier and the issues:
// no timestamps, random identifiers or locale-dependent formatting are
// embedded, and no external resources are referenced.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer creates an HTMLRenderer using the built-in template.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{tmpl: htmlTemplate}
}

// Render returns the complete markup document for project and issues.
//
// One table row is emitted per issue, in input order. The only failure is a
// nil issue in the sequence, which yields ErrInvalidInput.
func (r *HTMLRenderer) Render(project string, issues []*model.Issue) ([]byte, error) {
	doc := htmlDocument{
		Project: project,
		Rows:    make([]htmlRow, 0, len(issues)),
	}

	for i, issue := range issues {
		if issue == nil {
			return nil, fmt.Errorf("%w: issue %d is nil", ErrInvalidInput, i)
		}
		doc.Rows = append(doc.Rows, newHTMLRow(issue))
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

// newHTMLRow resolves the display values of one issue.
func newHTMLRow(issue *model.Issue) htmlRow {
	level := issue.Level()
	return htmlRow{
		Type:     issue.Type,
		Severity: level.String(),
		Message:  issue.Message,
		File:     issue.Component,
		Line:     issue.LineText(),
		// Colors come from model's static table, never from input text.
		Color: template.CSS(level.Color()), //nolint:gosec // static value
	}
}

// Render renders project and issues with a default HTMLRenderer.
func Render(project string, issues []*model.Issue) ([]byte, error) {
	return NewHTMLRenderer().Render(project, issues)
}

// HTMLWriter writes rendered HTML documents to an io.Writer.
type HTMLWriter struct {
	baseWriter
	renderer *HTMLRenderer
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		renderer:   NewHTMLRenderer(),
	}
}

// Write renders the report and writes it in one call.
func (w *HTMLWriter) Write(project string, issues []*model.Issue) (int, error) {
	markup, err := w.renderer.Render(project, issues)
	if err != nil {
		return 0, err
	}
	return w.output.Write(markup)
}
