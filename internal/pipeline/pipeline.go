package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/sonarreport/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the run as left by the
// previous steps.
type Step interface {
	// Do executes the step. A returned error stops the pipeline and is
	// recorded on the run.
	Do(ctx context.Context, run *model.ReportRun) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// finalSteps run after steps, whatever their outcome.
	finalSteps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to keep executing steps after
// one fails. The first error is still recorded on the run and returned.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:      make([]Step, 0),
		finalSteps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalStep appends a step that runs after all regular steps, even when
// one of them failed or the context was cancelled. Errors of final steps
// are logged and never change the outcome of the run.
func (p *Pipeline) AddFinalStep(step Step) {
	p.finalSteps = append(p.finalSteps, step)
}

// Execute runs all pipeline steps in sequence, then the final steps.
//
// Cancellation is checked before each step; steps handle their own
// timeouts. Returns the first error encountered, which is also stored on
// run.
func (p *Pipeline) Execute(ctx context.Context, run *model.ReportRun) error {
	err := p.executeSteps(ctx, run)
	run.FinishedAt = time.Now()

	p.executeFinalSteps(ctx, run)

	return err
}

func (p *Pipeline) executeSteps(ctx context.Context, run *model.ReportRun) error {
	var firstErr error

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"project", run.Project,
				"run_id", run.RunID,
				"reason", err,
			)
			p.recordError(run, err)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"project", run.Project,
			"run_id", run.RunID,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"project", run.Project,
				"run_id", run.RunID,
				"error", err,
			)

			if firstErr == nil {
				firstErr = err
				p.recordError(run, err)
			}

			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"project", run.Project,
		)
	}

	return firstErr
}

func (p *Pipeline) executeFinalSteps(ctx context.Context, run *model.ReportRun) {
	// Final steps must run after a cancellation too.
	ctx = context.WithoutCancel(ctx)

	for _, step := range p.finalSteps {
		if err := step.Do(ctx, run); err != nil {
			p.logger.Warn("final step failed",
				"step", step.Name(),
				"project", run.Project,
				"run_id", run.RunID,
				"error", err,
			)
		}
	}
}

func (p *Pipeline) recordError(run *model.ReportRun, err error) {
	run.Error = err
	run.ErrorMessage = err.Error()
}

// StepCount returns the number of regular steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order, final
// steps last.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps)+len(p.finalSteps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finalSteps {
		names = append(names, step.Name())
	}
	return names
}
