package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sonarreport/internal/config"
	"github.com/nao1215/sonarreport/internal/model"
	"github.com/nao1215/sonarreport/internal/sonarqube"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <project...>",
		Short: "Download the issue list of a project from SonarQube",
		Long: `Fetch downloads the unresolved issues of one or more projects from a
SonarQube server and writes them to {project}_sonar_issues_report.json, the
input of 'sonarreport generate'.

The token is read from --token, the ` + config.TokenEnv + ` environment variable or
the configuration file. The project identifier is used as the SonarQube
project key unless the configuration file maps it to a componentKey.

Examples:
  # Download the issues of myproject from a local server
  SONAR_TOKEN=squ_xxx sonarreport fetch myproject

  # Download from a remote server into ./reports
  sonarreport fetch --url https://sonar.example.com -d reports web api`,
		Args: cobra.MinimumNArgs(1),
		RunE: runFetchCmd,
	}

	cmd.Flags().String("url", config.DefaultSonarQubeURL,
		"SonarQube server URL (env: "+config.URLEnv+")")
	cmd.Flags().String("token", "",
		"SonarQube user token (env: "+config.TokenEnv+")")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for SonarQube requests (host:port)")
	cmd.Flags().StringP("dir", "d", config.DefaultOutputDir,
		"Directory the issue list is written to")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for one HTTP request")

	return cmd
}

// runFetchCmd executes the fetch command.
func runFetchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Projects = uniqueProjects(args)

	flags := cmd.Flags()
	if flagChanged(cmd, "url") {
		if cfg.SonarQubeURL, err = flags.GetString("url"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "token") {
		if cfg.SonarQubeToken, err = flags.GetString("token"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "proxy") {
		if cfg.SonarQubeProxy, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "dir") {
		if cfg.OutputDir, err = flags.GetString("dir"); err != nil {
			return err
		}
	}
	if cfg.FetchTimeout, err = flags.GetDuration("timeout"); err != nil {
		return err
	}

	if err := cfg.ValidateFetch(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runFetch(ctx, cmd.OutOrStdout(), cfg, logger)
}

// runFetch downloads the issue list of every configured project in turn.
func runFetch(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	client, err := newSonarClient(cfg, logger)
	if err != nil {
		return err
	}

	for _, project := range cfg.Projects {
		settings := cfg.ForProject(project)
		paths := model.NewArtifactPaths(settings.OutputDir, project)

		issues, err := client.FetchIssues(ctx, settings.ComponentKey)
		if err != nil {
			return fmt.Errorf("failed to fetch issues of %s: %w", settings.ComponentKey, err)
		}
		if err := sonarqube.WriteIssuesFile(paths.Issues, issues); err != nil {
			return err
		}

		fmt.Fprintf(out, "Fetched %d issues of %s: %s\n", len(issues), settings.ComponentKey, paths.Issues)
	}
	return nil
}
