package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/sonarreport/internal/export"
	"github.com/nao1215/sonarreport/internal/loader"
	"github.com/nao1215/sonarreport/internal/model"
	"github.com/nao1215/sonarreport/internal/report"
	"github.com/nao1215/sonarreport/internal/sonarqube"
)

// Step names, used in logs and tests.
const (
	StepFetch     = "fetch"
	StepLoad      = "load"
	StepRender    = "render"
	StepWriteHTML = "write-html"
	StepMarkdown  = "markdown"
	StepExport    = "export"
	StepRecord    = "record"
)

// ErrNoMarkup is returned when a step needs markup that was never rendered.
var ErrNoMarkup = errors.New("no rendered markup")

// IssueFetcher downloads the issue list of a SonarQube project.
type IssueFetcher interface {
	FetchIssues(ctx context.Context, componentKey string) ([]sonarqube.Issue, error)
}

// RunRecorder stores finished runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *model.ReportRun) (int64, error)
}

// FetchStep downloads the project's issues and stores them at the run's
// issue path, replacing any previous list.
type FetchStep struct {
	fetcher      IssueFetcher
	componentKey string
	logger       *slog.Logger
}

// NewFetchStep creates a FetchStep reading componentKey through fetcher.
// An empty componentKey uses the run's project identifier.
func NewFetchStep(fetcher IssueFetcher, componentKey string, logger *slog.Logger) *FetchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStep{
		fetcher:      fetcher,
		componentKey: componentKey,
		logger:       logger,
	}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return StepFetch
}

// Do fetches and writes the issue list.
func (s *FetchStep) Do(ctx context.Context, run *model.ReportRun) error {
	key := s.componentKey
	if key == "" {
		key = run.Project
	}

	issues, err := s.fetcher.FetchIssues(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to fetch issues of %s: %w", key, err)
	}

	if err := sonarqube.WriteIssuesFile(run.Paths.Issues, issues); err != nil {
		return err
	}
	run.Fetched = true

	s.logger.Info("issues fetched",
		"project", run.Project,
		"component", key,
		"issues", len(issues),
		"path", run.Paths.Issues,
	)
	return nil
}

// LoadStep reads the issue list into the run.
type LoadStep struct {
	// source overrides the file at the run's issue path when set.
	source loader.Source
}

// NewLoadStep creates a LoadStep reading the run's issue file.
func NewLoadStep() *LoadStep {
	return &LoadStep{}
}

// NewLoadStepFromSource creates a LoadStep reading from source.
func NewLoadStepFromSource(source loader.Source) *LoadStep {
	return &LoadStep{source: source}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return StepLoad
}

// Do loads the issues and summarizes them.
func (s *LoadStep) Do(ctx context.Context, run *model.ReportRun) error {
	source := s.source
	if source == nil {
		source = loader.NewFileSource(run.Paths.Issues)
	}

	issues, err := source.Load(ctx)
	if err != nil {
		return err
	}

	run.Issues = issues
	run.Summary = model.Summarize(issues)
	return nil
}

// RenderStep renders the loaded issues into the HTML document.
type RenderStep struct {
	renderer *report.HTMLRenderer
}

// NewRenderStep creates a RenderStep using the built-in template.
func NewRenderStep() *RenderStep {
	return &RenderStep{renderer: report.NewHTMLRenderer()}
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return StepRender
}

// Do renders run.Issues into run.Markup.
func (s *RenderStep) Do(_ context.Context, run *model.ReportRun) error {
	markup, err := s.renderer.Render(run.Project, run.Issues)
	if err != nil {
		return err
	}
	run.Markup = markup
	return nil
}

// WriteHTMLStep writes the rendered document to the run's HTML path.
type WriteHTMLStep struct{}

// NewWriteHTMLStep creates a WriteHTMLStep.
func NewWriteHTMLStep() *WriteHTMLStep {
	return &WriteHTMLStep{}
}

// Name returns the step name.
func (s *WriteHTMLStep) Name() string {
	return StepWriteHTML
}

// Do writes run.Markup in one call, replacing any previous file.
func (s *WriteHTMLStep) Do(_ context.Context, run *model.ReportRun) error {
	if run.Markup == nil {
		return ErrNoMarkup
	}

	if err := ensureDir(run.Paths.HTML); err != nil {
		return err
	}
	if err := os.WriteFile(run.Paths.HTML, run.Markup, 0644); err != nil { //nolint:gosec // reports are meant to be shared
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	run.HTMLWritten = true
	return nil
}

// MarkdownStep writes the Markdown summary to the run's Markdown path.
type MarkdownStep struct{}

// NewMarkdownStep creates a MarkdownStep.
func NewMarkdownStep() *MarkdownStep {
	return &MarkdownStep{}
}

// Name returns the step name.
func (s *MarkdownStep) Name() string {
	return StepMarkdown
}

// Do writes the Markdown summary of run.Issues.
func (s *MarkdownStep) Do(_ context.Context, run *model.ReportRun) (err error) {
	if err := ensureDir(run.Paths.Markdown); err != nil {
		return err
	}

	f, err := os.Create(run.Paths.Markdown)
	if err != nil {
		return fmt.Errorf("failed to create Markdown report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close Markdown report: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := report.NewMarkdownWriter(w).Write(run.Project, run.Issues); err != nil {
		return fmt.Errorf("failed to write Markdown report: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write Markdown report: %w", err)
	}

	run.MarkdownWritten = true
	return nil
}

// ExportStep converts the written HTML document into the run's PDF.
type ExportStep struct {
	exporter export.Exporter
	timeout  time.Duration
	logger   *slog.Logger
}

// NewExportStep creates an ExportStep. A positive timeout bounds the
// conversion; zero leaves it to the caller's context.
func NewExportStep(exporter export.Exporter, timeout time.Duration, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{
		exporter: exporter,
		timeout:  timeout,
		logger:   logger,
	}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return StepExport
}

// Do exports the HTML file. A failure leaves the HTML file in place.
func (s *ExportStep) Do(ctx context.Context, run *model.ReportRun) error {
	if !run.HTMLWritten {
		return fmt.Errorf("%w: HTML report was not written", ErrNoMarkup)
	}

	run.Engine = string(s.exporter.Engine())

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.exporter.Export(ctx, run.Paths.HTML, run.Paths.PDF); err != nil {
		return err
	}
	run.PDFWritten = true

	pages, err := export.PageCount(run.Paths.PDF)
	if err != nil {
		// The exporter already validated the file; only the count is lost.
		s.logger.Warn("failed to count PDF pages", "path", run.Paths.PDF, "error", err)
		return nil
	}
	run.PageCount = pages
	return nil
}

// RecordStep stores the run in the report history. It is meant to be
// added with AddFinalStep so that failed runs are recorded as well.
type RecordStep struct {
	recorder RunRecorder
	logger   *slog.Logger
}

// NewRecordStep creates a RecordStep writing to recorder.
func NewRecordStep(recorder RunRecorder, logger *slog.Logger) *RecordStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStep{
		recorder: recorder,
		logger:   logger,
	}
}

// Name returns the step name.
func (s *RecordStep) Name() string {
	return StepRecord
}

// Do records the run.
func (s *RecordStep) Do(ctx context.Context, run *model.ReportRun) error {
	id, err := s.recorder.RecordRun(ctx, run)
	if err != nil {
		return err
	}
	s.logger.Debug("run recorded", "project", run.Project, "id", id, "status", run.Status())
	return nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
