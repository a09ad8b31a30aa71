package model

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of a report run.
type RunStatus string

const (
	// RunStatusOK means every requested artifact was produced.
	RunStatusOK RunStatus = "ok"

	// RunStatusPartial means the HTML was written but a later step, usually
	// the PDF export, failed. The HTML stays on disk.
	RunStatusPartial RunStatus = "partial"

	// RunStatusFailed means the run stopped before any output was written.
	RunStatusFailed RunStatus = "failed"
)

// ReportRun carries the state of one report generation through the pipeline.
// Steps fill it in order: issues, markup, then the written artifacts.
type ReportRun struct {
	// RunID identifies the run in logs and in the history database.
	RunID string `json:"run_id"`

	// Project is the project identifier used for titles and file names.
	Project string `json:"project"`

	// Paths are the artifact locations derived from Project.
	Paths ArtifactPaths `json:"paths"`

	// StartedAt is when the run began. It is never embedded in the markup.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last step returned.
	FinishedAt time.Time `json:"finished_at"`

	// Engine is the PDF export engine, empty when the export is skipped.
	Engine string `json:"engine,omitempty"`

	// Fetched is set when the issues were downloaded from SonarQube during
	// this run.
	Fetched bool `json:"fetched"`

	// Issues is the loaded issue sequence, in source order.
	Issues []*Issue `json:"-"`

	// Summary counts Issues by severity.
	Summary Summary `json:"summary"`

	// Markup is the rendered HTML document.
	Markup []byte `json:"-"`

	// HTMLWritten is set once the markup is on disk.
	HTMLWritten bool `json:"html_written"`

	// PDFWritten is set once the exporter produced a valid PDF.
	PDFWritten bool `json:"pdf_written"`

	// PageCount is the number of pages of the exported PDF.
	PageCount int `json:"page_count,omitempty"`

	// MarkdownWritten is set once the Markdown summary is on disk.
	MarkdownWritten bool `json:"markdown_written"`

	// Error is the error that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text, for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewReportRun creates a run for project with artifacts inside dir.
func NewReportRun(project, dir string) *ReportRun {
	return &ReportRun{
		RunID:     uuid.NewString(),
		Project:   project,
		Paths:     NewArtifactPaths(dir, project),
		StartedAt: time.Now(),
	}
}

// Status derives the outcome of the run from the written artifacts.
func (r *ReportRun) Status() RunStatus {
	switch {
	case r.Error == nil:
		return RunStatusOK
	case r.HTMLWritten:
		return RunStatusPartial
	default:
		return RunStatusFailed
	}
}

// Duration returns how long the run took, or zero while it is running.
func (r *ReportRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
