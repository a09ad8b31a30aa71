package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and ValidateProject, and can
// be matched with errors.Is.
var (
	// ErrNoProject is returned when no project identifier is given.
	ErrNoProject = errors.New("no project specified")

	// ErrInvalidProject is returned when a project identifier cannot be used
	// to derive artifact file names, for example because it contains a path
	// separator.
	ErrInvalidProject = errors.New("invalid project identifier")

	// ErrInvalidEngine is returned when the export engine is not supported.
	ErrInvalidEngine = errors.New("invalid export engine: must be wkhtmltopdf, chrome or builtin")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidOutputDir is returned when the output directory is empty.
	ErrInvalidOutputDir = errors.New("invalid output directory: must not be empty")

	// ErrInvalidSonarQubeURL is returned when the server URL is not an
	// absolute http or https URL.
	ErrInvalidSonarQubeURL = errors.New("invalid SonarQube URL: must be an absolute http or https URL")
)
