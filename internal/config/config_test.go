package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default project is default_project", func(t *testing.T) {
		t.Parallel()
		if len(cfg.Projects) != 1 || cfg.Projects[0] != "default_project" {
			t.Errorf("expected Projects to be [default_project], got %v", cfg.Projects)
		}
	})

	t.Run("default OutputDir is the current directory", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputDir != "." {
			t.Errorf("expected OutputDir to be '.', got '%s'", cfg.OutputDir)
		}
	})

	t.Run("default Engine is wkhtmltopdf", func(t *testing.T) {
		t.Parallel()
		if cfg.Engine != "wkhtmltopdf" {
			t.Errorf("expected Engine to be 'wkhtmltopdf', got '%s'", cfg.Engine)
		}
	})

	t.Run("default ExportTimeout is 2 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.ExportTimeout != 2*time.Minute {
			t.Errorf("expected ExportTimeout to be 2m, got %v", cfg.ExportTimeout)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("history is saved by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveHistory {
			t.Error("expected SaveHistory to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir to be %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("Markdown and SkipPDF are off", func(t *testing.T) {
		t.Parallel()
		if cfg.Markdown || cfg.SkipPDF {
			t.Error("expected Markdown and SkipPDF to be false")
		}
	})

	t.Run("default SonarQube URL is local", func(t *testing.T) {
		t.Parallel()
		if cfg.SonarQubeURL != "http://localhost:9000" {
			t.Errorf("unexpected SonarQubeURL %q", cfg.SonarQubeURL)
		}
		if cfg.FetchTimeout != 30*time.Second {
			t.Errorf("expected FetchTimeout to be 30s, got %v", cfg.FetchTimeout)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config returns nil",
			modify: func(*Config) {},
		},
		{
			name:    "no project",
			modify:  func(c *Config) { c.Projects = nil },
			wantErr: ErrNoProject,
		},
		{
			name:    "project with path separator",
			modify:  func(c *Config) { c.Projects = []string{"ok", "../etc"} },
			wantErr: ErrInvalidProject,
		},
		{
			name:    "unknown engine",
			modify:  func(c *Config) { c.Engine = "prince" },
			wantErr: ErrInvalidEngine,
		},
		{
			name:   "engine name is case-insensitive",
			modify: func(c *Config) { c.Engine = "Builtin" },
		},
		{
			name:   "unknown engine in project override",
			modify: func(c *Config) {
				c.ProjectConfigs = &File{Projects: map[string]ProjectConfig{
					"default_project": {Engine: "prince"},
				}}
			},
			wantErr: ErrInvalidEngine,
		},
		{
			name:    "zero export timeout",
			modify:  func(c *Config) { c.ExportTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative batch size",
			modify:  func(c *Config) { c.BatchSize = -1 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name:    "empty output dir",
			modify:  func(c *Config) { c.OutputDir = "" },
			wantErr: ErrInvalidOutputDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestConfigValidateFetch tests the settings required for downloading issues.
func TestConfigValidateFetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		timeout time.Duration
		wantErr error
	}{
		{name: "http URL", url: "http://localhost:9000", timeout: time.Second},
		{name: "https URL with path", url: "https://example.com/sonar", timeout: time.Second},
		{name: "missing scheme", url: "localhost:9000", timeout: time.Second, wantErr: ErrInvalidSonarQubeURL},
		{name: "ftp scheme", url: "ftp://example.com", timeout: time.Second, wantErr: ErrInvalidSonarQubeURL},
		{name: "empty", url: "", timeout: time.Second, wantErr: ErrInvalidSonarQubeURL},
		{name: "zero timeout", url: "http://localhost:9000", timeout: 0, wantErr: ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.SonarQubeURL = tt.url
			cfg.FetchTimeout = tt.timeout

			err := cfg.ValidateFetch()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestValidateProject tests project identifier checks.
func TestValidateProject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id    string
		valid bool
	}{
		{id: "default_project", valid: true},
		{id: "my-service.api", valid: true},
		{id: "org:repo", valid: true},
		{id: "", valid: false},
		{id: "   ", valid: false},
		{id: "a/b", valid: false},
		{id: `a\b`, valid: false},
		{id: "..", valid: false},
		{id: "a..b", valid: false},
		{id: "a\x00b", valid: false},
	}

	for _, tt := range tests {
		err := ValidateProject(tt.id)
		if tt.valid && err != nil {
			t.Errorf("ValidateProject(%q): unexpected error %v", tt.id, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidProject) {
			t.Errorf("ValidateProject(%q): expected ErrInvalidProject, got %v", tt.id, err)
		}
	}
}

// TestForProject tests merging of per-project settings.
func TestForProject(t *testing.T) {
	t.Parallel()

	yes := true
	cfg := NewConfig()
	cfg.Engine = "chrome"
	cfg.ProjectConfigs = &File{
		Projects: map[string]ProjectConfig{
			"api": {
				ComponentKey: "org_api",
				Engine:       "builtin",
				OutputDir:    "reports/api",
				Markdown:     &yes,
			},
		},
	}

	t.Run("project without entry uses global values", func(t *testing.T) {
		t.Parallel()

		s := cfg.ForProject("web")
		if s.Engine != "chrome" || s.OutputDir != "." || s.Markdown {
			t.Errorf("unexpected settings: %+v", s)
		}
		if s.ComponentKey != "web" {
			t.Errorf("expected component key to default to the project, got %q", s.ComponentKey)
		}
	})

	t.Run("project entry overrides global values", func(t *testing.T) {
		t.Parallel()

		s := cfg.ForProject("api")
		if s.Engine != "builtin" || s.OutputDir != "reports/api" || !s.Markdown {
			t.Errorf("unexpected settings: %+v", s)
		}
		if s.ComponentKey != "org_api" {
			t.Errorf("expected component key org_api, got %q", s.ComponentKey)
		}
		if s.SkipPDF {
			t.Error("expected SkipPDF to keep the global value")
		}
	})

	t.Run("nil file uses global values", func(t *testing.T) {
		t.Parallel()

		s := NewConfig().ForProject("x")
		if s.Engine != DefaultEngine {
			t.Errorf("unexpected engine %q", s.Engine)
		}
	})
}

// TestApplyFile tests copying file values into the configuration.
func TestApplyFile(t *testing.T) {
	t.Parallel()

	t.Run("applies present values", func(t *testing.T) {
		t.Parallel()

		yes := true
		cfg := NewConfig()
		cfg.ApplyFile(&File{
			SonarQube: SonarQubeConfig{URL: "https://sonar.example.com", Token: "squ_abc", Proxy: "127.0.0.1:1080"},
			Defaults:  ProjectConfig{Engine: "builtin", Markdown: &yes},
		})

		if cfg.SonarQubeURL != "https://sonar.example.com" {
			t.Errorf("unexpected URL %q", cfg.SonarQubeURL)
		}
		if cfg.SonarQubeToken != "squ_abc" {
			t.Errorf("unexpected token %q", cfg.SonarQubeToken)
		}
		if cfg.SonarQubeProxy != "127.0.0.1:1080" {
			t.Errorf("unexpected proxy %q", cfg.SonarQubeProxy)
		}
		if cfg.Engine != "builtin" || !cfg.Markdown {
			t.Errorf("expected defaults to be applied, got engine %q markdown %v", cfg.Engine, cfg.Markdown)
		}
		if cfg.OutputDir != "." {
			t.Errorf("expected OutputDir to stay '.', got %q", cfg.OutputDir)
		}
		if cfg.ProjectConfigs == nil {
			t.Error("expected ProjectConfigs to be set")
		}
	})

	t.Run("nil file is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(nil)
		if cfg.ProjectConfigs != nil || cfg.Engine != DefaultEngine {
			t.Error("expected config to be unchanged")
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.sonarreport")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".sonarreport")

		content := `sonarqube:
  url: https://sonar.example.com
defaults:
  engine: chrome
  markdown: true
projects:
  api:
    componentKey: org_api
    outputDir: reports
    skipPdf: true
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SonarQube.URL != "https://sonar.example.com" {
			t.Errorf("unexpected URL %q", cfg.SonarQube.URL)
		}
		if cfg.Defaults.Engine != "chrome" {
			t.Errorf("expected default engine chrome, got %q", cfg.Defaults.Engine)
		}
		if cfg.Defaults.Markdown == nil || !*cfg.Defaults.Markdown {
			t.Error("expected default markdown true")
		}

		api, ok := cfg.Projects["api"]
		if !ok {
			t.Fatal("expected api in projects")
		}
		if api.ComponentKey != "org_api" || api.OutputDir != "reports" {
			t.Errorf("unexpected project config: %+v", api)
		}
		if api.SkipPDF == nil || !*api.SkipPDF {
			t.Error("expected skipPdf true")
		}
		if api.Markdown != nil {
			t.Error("expected markdown to be unset for api")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".sonarreport")

		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Projects map", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".sonarreport")

		if err := os.WriteFile(configPath, []byte("defaults:\n  engine: builtin\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Projects == nil {
			t.Error("expected Projects map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "custom.yaml")

		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		result := FindConfigFile(configPath)
		if result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		result := FindConfigFile("/nonexistent/path/config.yaml")
		if result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("finds file in current directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(tmpDir, DefaultConfigFile), []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		t.Chdir(tmpDir)

		result := FindConfigFile("")
		if filepath.Base(result) != DefaultConfigFile {
			t.Errorf("expected %s in cwd, got %q", DefaultConfigFile, result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		if dir == "" {
			t.Errorf("expected non-empty XDG %s dir", name)
		}
		if filepath.Base(dir) != AppName {
			t.Errorf("expected XDG %s dir to end in %s, got %q", name, AppName, dir)
		}
	}
}
