package config

// ProjectConfig holds report settings for one project.
// Pointer fields distinguish "not set" from false.
type ProjectConfig struct {
	// ComponentKey is the SonarQube project key when it differs from the
	// project identifier.
	ComponentKey string `yaml:"componentKey,omitempty"`

	// OutputDir overrides the artifact directory.
	OutputDir string `yaml:"outputDir,omitempty"`

	// Engine overrides the export engine.
	Engine string `yaml:"engine,omitempty"`

	// Markdown enables or disables the Markdown companion report.
	Markdown *bool `yaml:"markdown,omitempty"`

	// SkipPDF enables or disables the PDF export.
	SkipPDF *bool `yaml:"skipPdf,omitempty"`
}

// SonarQubeConfig holds the server connection settings.
type SonarQubeConfig struct {
	// URL is the server base URL, e.g. "https://sonar.example.com".
	URL string `yaml:"url,omitempty"`

	// Token is a user token. Prefer the SONAR_TOKEN environment variable.
	Token string `yaml:"token,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" form.
	Proxy string `yaml:"proxy,omitempty"`
}

// File represents the structure of the .sonarreport configuration file.
type File struct {
	// SonarQube holds the server connection settings.
	SonarQube SonarQubeConfig `yaml:"sonarqube,omitempty"`

	// Defaults applies to every project.
	Defaults ProjectConfig `yaml:"defaults,omitempty"`

	// Projects maps project identifiers to their settings.
	Projects map[string]ProjectConfig `yaml:"projects,omitempty"`
}
