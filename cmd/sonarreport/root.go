package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sonarreport/internal/config"
	sreportlog "github.com/nao1215/sonarreport/internal/log"
)

// NewRootCmd creates the root command for sonarreport.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sonarreport",
		Short: "Convert SonarQube issue lists into HTML and PDF reports",
		Long: `sonarreport converts the issue list of a SonarQube scan into a shareable,
printable document: a styled HTML report first, then a paginated PDF derived
from it.

The issue list is read from {project}_sonar_issues_report.json in the output
directory. Use 'sonarreport fetch' or 'generate --fetch' to download it from
a SonarQube server.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .sonarreport in current or home directory)")

	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// getBoolFlag returns a flag value of the command or its parents, or false
// when the flag is not defined.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return v
}

// getStringFlag returns a flag value of the command or its parents, or ""
// when the flag is not defined.
func getStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}

// flagChanged reports whether the user set the named flag.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// setupLogger creates the logger for a command. Logs go to stderr through
// the secure handler so that tokens never reach the output.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose := getBoolFlag(cmd, "verbose")
	if getBoolFlag(cmd, "log-json") {
		return sreportlog.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return sreportlog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// loadConfig builds the configuration from defaults, the configuration file
// and the environment. Command flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.ConfigFilePath = getStringFlag(cmd, "config")

	// An explicit path must exist; the default locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if v := os.Getenv(config.URLEnv); v != "" {
		cfg.SonarQubeURL = v
	}
	if v := os.Getenv(config.TokenEnv); v != "" {
		cfg.SonarQubeToken = v
	}

	return cfg, nil
}
