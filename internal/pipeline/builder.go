package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/sonarreport/internal/config"
	"github.com/nao1215/sonarreport/internal/export"
	"github.com/nao1215/sonarreport/internal/model"
)

// Builder assembles the report pipeline of a project from the configuration.
// It is safe to call Build concurrently; every call returns fresh steps.
type Builder struct {
	cfg      *config.Config
	logger   *slog.Logger
	fetcher  IssueFetcher
	recorder RunRecorder
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuilderLogger sets the logger passed to the pipeline and its steps.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithFetcher adds a fetch step that downloads the issues before loading.
func WithFetcher(fetcher IssueFetcher) BuilderOption {
	return func(b *Builder) {
		b.fetcher = fetcher
	}
}

// WithRecorder records every run, including failed ones.
func WithRecorder(recorder RunRecorder) BuilderOption {
	return func(b *Builder) {
		b.recorder = recorder
	}
}

// NewBuilder creates a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Build returns the pipeline and a fresh run for project.
//
// The steps are fetch (with a fetcher), load, render, write-html, markdown
// (when enabled) and export (unless the PDF is skipped). With a recorder,
// the run is recorded as a final step.
func (b *Builder) Build(project string) (*Pipeline, *model.ReportRun, error) {
	settings := b.cfg.ForProject(project)
	run := model.NewReportRun(project, settings.OutputDir)

	p := New(WithLogger(b.logger.With("project", project)))

	if b.fetcher != nil {
		p.AddStep(NewFetchStep(b.fetcher, settings.ComponentKey, b.logger))
	}

	p.AddSteps(
		NewLoadStep(),
		NewRenderStep(),
		NewWriteHTMLStep(),
	)

	if settings.Markdown {
		p.AddStep(NewMarkdownStep())
	}

	if !settings.SkipPDF {
		exporter, err := b.exporter(settings)
		if err != nil {
			return nil, run, err
		}
		p.AddStep(NewExportStep(exporter, b.cfg.ExportTimeout, b.logger))
	}

	if b.recorder != nil {
		p.AddFinalStep(NewRecordStep(b.recorder, b.logger))
	}

	return p, run, nil
}

// exporter creates the exporter for the project's engine.
func (b *Builder) exporter(settings config.Settings) (export.Exporter, error) {
	engine, err := export.ParseEngine(settings.Engine)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", settings.Project, err)
	}

	opts := []export.Option{export.WithLogger(b.logger)}
	switch engine {
	case export.EngineWkhtmltopdf:
		if b.cfg.WkhtmltopdfPath != "" {
			opts = append(opts, export.WithBinaryPath(b.cfg.WkhtmltopdfPath))
		}
	case export.EngineChrome:
		if b.cfg.ChromePath != "" {
			opts = append(opts, export.WithBinaryPath(b.cfg.ChromePath))
		}
	case export.EngineBuiltin:
	}

	return export.New(engine, opts...)
}
