package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/sonarreport/internal/export"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sonarreport"

	// DefaultProject is the identifier used when none is given.
	DefaultProject = "default_project"

	// DefaultOutputDir is the directory holding input and artifacts.
	DefaultOutputDir = "."

	// DefaultEngine is the PDF export engine.
	DefaultEngine = string(export.EngineWkhtmltopdf)

	// DefaultExportTimeout bounds one PDF conversion. Large reports take
	// wkhtmltopdf tens of seconds.
	DefaultExportTimeout = 2 * time.Minute

	// DefaultBatchSize is the number of projects processed concurrently.
	// Export tools are CPU and memory heavy, so this stays small.
	DefaultBatchSize = 4

	// DefaultSonarQubeURL is the address of a local SonarQube server.
	DefaultSonarQubeURL = "http://localhost:9000"

	// DefaultFetchTimeout bounds one HTTP request to SonarQube.
	DefaultFetchTimeout = 30 * time.Second

	// TokenEnv is the environment variable holding the SonarQube token.
	TokenEnv = "SONAR_TOKEN" //nolint:gosec // variable name, not a credential

	// URLEnv is the environment variable holding the SonarQube server URL.
	URLEnv = "SONAR_HOST_URL"
)

// Config holds all configuration options for sonarreport.
// It is populated from defaults, the configuration file and CLI flags, in
// that order, and passed through the application explicitly.
type Config struct {
	// Projects is the list of project identifiers to process.
	Projects []string

	// OutputDir is the directory where the issue file is read and the
	// artifacts are written.
	OutputDir string

	// Engine is the PDF export engine name.
	Engine string

	// WkhtmltopdfPath is the wkhtmltopdf executable. Empty means PATH lookup.
	WkhtmltopdfPath string

	// ChromePath is the Chrome or Chromium executable. Empty means PATH lookup.
	ChromePath string

	// ExportTimeout bounds one PDF conversion.
	ExportTimeout time.Duration

	// Markdown enables the Markdown companion report.
	Markdown bool

	// SkipPDF disables the PDF export; only the HTML document is written.
	SkipPDF bool

	// BatchSize is the number of projects processed concurrently.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .sonarreport is searched in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// ProjectConfigs holds per-project settings from the configuration file.
	ProjectConfigs *File

	// SaveHistory records every run in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/sonarreport on Linux).
	DBDir string

	// SonarQubeURL is the base URL of the SonarQube server.
	SonarQubeURL string

	// SonarQubeToken is the user token sent with API requests.
	SonarQubeToken string

	// FetchTimeout bounds one HTTP request to SonarQube.
	FetchTimeout time.Duration

	// SonarQubeProxy is a SOCKS5 proxy "host:port" for SonarQube requests.
	// Empty means a direct connection.
	SonarQubeProxy string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Projects:      []string{DefaultProject},
		OutputDir:     DefaultOutputDir,
		Engine:        DefaultEngine,
		ExportTimeout: DefaultExportTimeout,
		BatchSize:     DefaultBatchSize,
		SaveHistory:   true,
		DBDir:         XDGDataDir(),
		SonarQubeURL:  DefaultSonarQubeURL,
		FetchTimeout:  DefaultFetchTimeout,
	}
}

// XDGDataDir returns the XDG data directory for sonarreport.
// On Linux: ~/.local/share/sonarreport
// On macOS: ~/Library/Application Support/sonarreport
// On Windows: %LOCALAPPDATA%\sonarreport
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sonarreport.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile copies the values of a configuration file into c.
// Only values present in the file are applied; CLI flags are applied after
// this call and take precedence.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.ProjectConfigs = f

	if f.SonarQube.URL != "" {
		c.SonarQubeURL = f.SonarQube.URL
	}
	if f.SonarQube.Token != "" {
		c.SonarQubeToken = f.SonarQube.Token
	}
	if f.SonarQube.Proxy != "" {
		c.SonarQubeProxy = f.SonarQube.Proxy
	}
	if f.Defaults.Engine != "" {
		c.Engine = f.Defaults.Engine
	}
	if f.Defaults.OutputDir != "" {
		c.OutputDir = f.Defaults.OutputDir
	}
	if f.Defaults.Markdown != nil {
		c.Markdown = *f.Defaults.Markdown
	}
	if f.Defaults.SkipPDF != nil {
		c.SkipPDF = *f.Defaults.SkipPDF
	}
}

// Settings are the effective report settings of one project.
type Settings struct {
	// Project is the project identifier.
	Project string

	// ComponentKey is the SonarQube project key.
	ComponentKey string

	// OutputDir is the artifact directory.
	OutputDir string

	// Engine is the export engine name.
	Engine string

	// Markdown enables the Markdown companion report.
	Markdown bool

	// SkipPDF disables the PDF export.
	SkipPDF bool
}

// ForProject returns the settings for project: the global values with the
// project's entry of the configuration file applied on top.
func (c *Config) ForProject(project string) Settings {
	s := Settings{
		Project:      project,
		ComponentKey: project,
		OutputDir:    c.OutputDir,
		Engine:       c.Engine,
		Markdown:     c.Markdown,
		SkipPDF:      c.SkipPDF,
	}
	if c.ProjectConfigs == nil {
		return s
	}

	pc, ok := c.ProjectConfigs.Projects[project]
	if !ok {
		return s
	}
	if pc.ComponentKey != "" {
		s.ComponentKey = pc.ComponentKey
	}
	if pc.OutputDir != "" {
		s.OutputDir = pc.OutputDir
	}
	if pc.Engine != "" {
		s.Engine = pc.Engine
	}
	if pc.Markdown != nil {
		s.Markdown = *pc.Markdown
	}
	if pc.SkipPDF != nil {
		s.SkipPDF = *pc.SkipPDF
	}
	return s
}

// Validate checks if the configuration is valid for report generation.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Projects) == 0 {
		return ErrNoProject
	}
	for _, p := range c.Projects {
		if err := ValidateProject(p); err != nil {
			return err
		}
		s := c.ForProject(p)
		if _, err := export.ParseEngine(s.Engine); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidEngine, s.Engine)
		}
		if s.OutputDir == "" {
			return ErrInvalidOutputDir
		}
	}

	if c.ExportTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}

// ValidateFetch checks the settings needed to download issues.
func (c *Config) ValidateFetch() error {
	if len(c.Projects) == 0 {
		return ErrNoProject
	}
	for _, p := range c.Projects {
		if err := ValidateProject(p); err != nil {
			return err
		}
	}
	if c.OutputDir == "" {
		return ErrInvalidOutputDir
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}

	u, err := url.Parse(c.SonarQubeURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSonarQubeURL, c.SonarQubeURL)
	}
	return nil
}

// ValidateProject checks that id can be embedded in artifact file names.
// Identifiers must be non-empty and must not contain path separators or
// parent directory references.
func ValidateProject(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty", ErrInvalidProject)
	case strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidProject, id)
	case strings.Contains(id, ".."):
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidProject, id)
	case strings.ContainsRune(id, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidProject, id)
	}
	return nil
}
