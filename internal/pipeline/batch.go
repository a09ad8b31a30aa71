package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sonarreport/internal/model"
	"golang.org/x/sync/errgroup"
)

// Factory creates the pipeline and the run of one project.
type Factory func(project string) (*Pipeline, *model.ReportRun, error)

// BatchProcessor handles concurrent report generation for several projects.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	// factory creates a fresh pipeline for each project.
	factory Factory

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch generates the reports of projects concurrently.
//
// The returned runs are in the order of projects. A failing project does
// not stop the others; its error is recorded on its run. When the context
// is cancelled, runs that never started are nil and the context error is
// returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, projects []string) ([]*model.ReportRun, error) {
	bp.logger.Debug("starting batch processing",
		"total_projects", len(projects),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	runs := make([]*model.ReportRun, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, project := range projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			p, run, err := bp.factory(project)
			if err != nil {
				if run == nil {
					run = model.NewReportRun(project, "")
				}
				run.Error = fmt.Errorf("failed to build pipeline: %w", err)
				run.ErrorMessage = run.Error.Error()
				run.FinishedAt = time.Now()
				runs[i] = run
				return nil
			}

			if err := p.Execute(gctx, run); err != nil {
				bp.logger.Warn("report failed",
					"project", project,
					"status", run.Status(),
					"error", err,
				)
			} else {
				bp.logger.Debug("report completed", "project", project)
			}
			runs[i] = run

			// A failing project never cancels the others.
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch processing complete",
		"total_projects", len(projects),
		"elapsed", time.Since(startTime),
	)

	return runs, err
}
