package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sonarreport/internal/config"
	"github.com/nao1215/sonarreport/internal/database"
	"github.com/nao1215/sonarreport/internal/model"
	"github.com/nao1215/sonarreport/internal/pipeline"
	"github.com/nao1215/sonarreport/internal/report"
	"github.com/nao1215/sonarreport/internal/sonarqube"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [project...]",
		Short: "Generate HTML and PDF reports from SonarQube issue lists",
		Long: `Generate reads {project}_sonar_issues_report.json from the output directory
and writes {project}_sonar_report.html and {project}_sonar_report.pdf next to it.

Without arguments the project identifier "default_project" is used. Several
projects are processed concurrently.

PDF engines:
  wkhtmltopdf  external wkhtmltopdf tool (default)
  chrome       headless Chrome or Chromium
  builtin      in-process table layout, no external tool required

Examples:
  # Render default_project_sonar_issues_report.json in the current directory
  sonarreport generate

  # Render two projects from ./reports with the builtin engine
  sonarreport generate -d reports -e builtin web api

  # Download the issues first, then render HTML and Markdown only
  SONAR_TOKEN=squ_xxx sonarreport generate --fetch --no-pdf --markdown myproject`,
		Args: cobra.ArbitraryArgs,
		RunE: runGenerateCmd,
	}

	// Output flags
	cmd.Flags().StringP("dir", "d", config.DefaultOutputDir,
		"Directory holding the issue list and the generated reports")
	cmd.Flags().BoolP("markdown", "m", false,
		"Also write a Markdown summary ({project}_sonar_report.md)")
	cmd.Flags().Bool("no-pdf", false,
		"Write the HTML report only")
	cmd.Flags().BoolP("json", "j", false,
		"Print the result as JSON instead of a text summary")
	cmd.Flags().BoolP("list", "l", false,
		"List every issue in the text summary")

	// Export flags
	cmd.Flags().StringP("engine", "e", config.DefaultEngine,
		"PDF engine: wkhtmltopdf, chrome or builtin")
	cmd.Flags().DurationP("timeout", "t", config.DefaultExportTimeout,
		"Timeout for one PDF export")
	cmd.Flags().String("wkhtmltopdf", "",
		"Path to the wkhtmltopdf executable (default: looked up in PATH)")
	cmd.Flags().String("chrome", "",
		"Path to the Chrome or Chromium executable (default: looked up in PATH)")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of projects processed concurrently")

	// Fetch flags
	cmd.Flags().BoolP("fetch", "f", false,
		"Download the issue list from SonarQube before rendering")
	cmd.Flags().String("url", config.DefaultSonarQubeURL,
		"SonarQube server URL (env: "+config.URLEnv+")")
	cmd.Flags().String("token", "",
		"SonarQube user token (env: "+config.TokenEnv+")")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for SonarQube requests (host:port)")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// generateOptions are the output options of the generate command.
type generateOptions struct {
	fetch bool
	json  bool
	list  bool
}

// runGenerateCmd executes the generate command.
func runGenerateCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildGenerateConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if opts.fetch {
		if err := cfg.ValidateFetch(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	logger := setupLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runGenerate(ctx, cmd.OutOrStdout(), cfg, opts, logger)
}

// buildGenerateConfig creates the configuration from the file, the
// environment and the command flags, in increasing precedence.
func buildGenerateConfig(cmd *cobra.Command, args []string) (*config.Config, generateOptions, error) {
	var opts generateOptions

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, opts, err
	}

	if len(args) > 0 {
		cfg.Projects = uniqueProjects(args)
	}

	flags := cmd.Flags()
	if flagChanged(cmd, "dir") {
		if cfg.OutputDir, err = flags.GetString("dir"); err != nil {
			return nil, opts, err
		}
	}
	if flagChanged(cmd, "engine") {
		if cfg.Engine, err = flags.GetString("engine"); err != nil {
			return nil, opts, err
		}
	}
	if flagChanged(cmd, "markdown") {
		if cfg.Markdown, err = flags.GetBool("markdown"); err != nil {
			return nil, opts, err
		}
	}
	if flagChanged(cmd, "no-pdf") {
		if cfg.SkipPDF, err = flags.GetBool("no-pdf"); err != nil {
			return nil, opts, err
		}
	}
	if flagChanged(cmd, "url") {
		if cfg.SonarQubeURL, err = flags.GetString("url"); err != nil {
			return nil, opts, err
		}
	}
	if flagChanged(cmd, "token") {
		if cfg.SonarQubeToken, err = flags.GetString("token"); err != nil {
			return nil, opts, err
		}
	}
	if flagChanged(cmd, "proxy") {
		if cfg.SonarQubeProxy, err = flags.GetString("proxy"); err != nil {
			return nil, opts, err
		}
	}
	if flagChanged(cmd, "db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, opts, err
		}
	}

	if cfg.ExportTimeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, opts, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, opts, err
	}
	if cfg.WkhtmltopdfPath, err = flags.GetString("wkhtmltopdf"); err != nil {
		return nil, opts, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome"); err != nil {
		return nil, opts, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, opts, err
	}
	cfg.SaveHistory = !noHistory

	if opts.fetch, err = flags.GetBool("fetch"); err != nil {
		return nil, opts, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, opts, err
	}
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, opts, err
	}

	return cfg, opts, nil
}

// runGenerate produces the reports of every configured project and prints
// a summary of each run to out.
func runGenerate(ctx context.Context, out io.Writer, cfg *config.Config, opts generateOptions, logger *slog.Logger) error {
	builderOpts := []pipeline.BuilderOption{pipeline.WithBuilderLogger(logger)}

	if opts.fetch {
		client, err := newSonarClient(cfg, logger)
		if err != nil {
			return err
		}
		builderOpts = append(builderOpts, pipeline.WithFetcher(client))
	}

	if cfg.SaveHistory {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			// History is optional; a report must not fail because of it.
			logger.Warn("history disabled", "dir", cfg.DBDir, "error", err)
		} else {
			defer db.Close()
			builderOpts = append(builderOpts, pipeline.WithRecorder(db))
		}
	}

	builder := pipeline.NewBuilder(cfg, builderOpts...)
	bp := pipeline.NewBatchProcessor(builder.Build,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	runs, err := bp.ProcessBatch(ctx, cfg.Projects)
	if err != nil {
		return err
	}

	if err := printRuns(out, runs, opts); err != nil {
		return err
	}

	return runsError(runs)
}

// newSonarClient creates the SonarQube client from the configuration.
func newSonarClient(cfg *config.Config, logger *slog.Logger) (*sonarqube.Client, error) {
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	if cfg.SonarQubeProxy != "" {
		var err error
		if httpClient, err = sonarqube.NewSOCKS5HTTPClient(cfg.SonarQubeProxy, cfg.FetchTimeout); err != nil {
			return nil, err
		}
		logger.Debug("using SOCKS5 proxy", "proxy", cfg.SonarQubeProxy)
	}

	return sonarqube.NewClient(cfg.SonarQubeURL, cfg.SonarQubeToken,
		sonarqube.WithHTTPClient(httpClient),
		sonarqube.WithLogger(logger),
	)
}

// printRuns writes the result of every run to out.
func printRuns(out io.Writer, runs []*model.ReportRun, opts generateOptions) error {
	for _, run := range runs {
		if run == nil {
			continue
		}

		var w report.Writer
		if opts.json {
			w = report.NewJSONWriter(out, report.WithPrettyPrint())
		} else {
			w = report.NewSimpleWriter(out, report.WithShowEmpty(true), report.WithVerbose(opts.list))
		}

		if run.Issues != nil {
			if _, err := w.Write(run.Project, run.Issues); err != nil {
				return err
			}
		}
		if !opts.json {
			printArtifacts(out, run)
		}
	}
	return nil
}

// printArtifacts lists the files written by run, or why it failed.
func printArtifacts(out io.Writer, run *model.ReportRun) {
	if run.HTMLWritten {
		fmt.Fprintf(out, "HTML report:     %s\n", run.Paths.HTML)
	}
	if run.MarkdownWritten {
		fmt.Fprintf(out, "Markdown report: %s\n", run.Paths.Markdown)
	}
	if run.PDFWritten {
		fmt.Fprintf(out, "PDF report:      %s (%d pages)\n", run.Paths.PDF, run.PageCount)
	}
	if run.Error != nil {
		fmt.Fprintf(out, "Report for %s %s: %v\n", run.Project, run.Status(), run.Error)
	}
	fmt.Fprintln(out)
}

// runsError returns the error of a single failed run, or a summary error
// when several projects were processed.
func runsError(runs []*model.ReportRun) error {
	failed := make([]*model.ReportRun, 0)
	for _, run := range runs {
		if run == nil || run.Error != nil {
			failed = append(failed, run)
		}
	}

	switch {
	case len(failed) == 0:
		return nil
	case len(runs) == 1 && failed[0] != nil:
		return fmt.Errorf("report for %s failed: %w", failed[0].Project, failed[0].Error)
	default:
		errs := make([]error, 0, len(failed))
		for _, run := range failed {
			if run != nil {
				errs = append(errs, fmt.Errorf("%s: %w", run.Project, run.Error))
			}
		}
		if len(errs) == 0 {
			return fmt.Errorf("%d of %d reports failed", len(failed), len(runs))
		}
		return fmt.Errorf("%d of %d reports failed: %w", len(failed), len(runs), errors.Join(errs...))
	}
}

// uniqueProjects removes repeated identifiers, keeping the first occurrence.
// Runs of the same identifier would write the same artifact paths.
func uniqueProjects(projects []string) []string {
	seen := make(map[string]struct{}, len(projects))
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
