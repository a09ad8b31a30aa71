package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sonarreport/internal/model"
)

// JSONWriter outputs a normalized JSON view of a report: the project, the
// severity summary and the issues with their resolved severity and color.
type JSONWriter struct {
	baseWriter

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
// The prefix is prepended to each line, and indent is used for each level.
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

// jsonReport is the serialized shape of a report.
type jsonReport struct {
	Project string      `json:"project"`
	Summary jsonSummary `json:"summary"`
	Issues  []jsonIssue `json:"issues"`
}

type jsonSummary struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

type jsonIssue struct {
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Color     string `json:"color"`
	Message   string `json:"message"`
	Component string `json:"component"`
	Line      *int   `json:"line"`
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(project string, issues []*model.Issue) (int, error) {
	summary := model.Summarize(issues)

	doc := jsonReport{
		Project: project,
		Summary: jsonSummary{
			Counts: make(map[string]int, len(summary.Counts)),
			Total:  summary.Total,
		},
		Issues: make([]jsonIssue, 0, len(issues)),
	}
	for lvl, n := range summary.Counts {
		doc.Summary.Counts[lvl.String()] = n
	}
	for _, issue := range issues {
		if issue == nil {
			continue
		}
		lvl := issue.Level()
		doc.Issues = append(doc.Issues, jsonIssue{
			Type:      issue.Type,
			Severity:  lvl.String(),
			Color:     lvl.Color(),
			Message:   issue.Message,
			Component: issue.Component,
			Line:      issue.Line,
		})
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
