package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// Exporter converts a markup file into a PDF file.
type Exporter interface {
	// Export reads markupPath and writes the document to outputPath.
	// It returns nil only when outputPath holds a valid PDF.
	Export(ctx context.Context, markupPath, outputPath string) error

	// Engine returns the engine name.
	Engine() Engine
}

// Engine names a conversion engine.
type Engine string

const (
	// EngineWkhtmltopdf runs the external wkhtmltopdf tool.
	EngineWkhtmltopdf Engine = "wkhtmltopdf"

	// EngineChrome prints with a headless Chrome or Chromium browser.
	EngineChrome Engine = "chrome"

	// EngineBuiltin lays out the document in-process.
	EngineBuiltin Engine = "builtin"
)

// Engines returns every supported engine.
func Engines() []Engine {
	return []Engine{EngineWkhtmltopdf, EngineChrome, EngineBuiltin}
}

// ParseEngine returns the engine with the given name, case-insensitively.
func ParseEngine(name string) (Engine, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, e := range Engines() {
		if string(e) == want {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, name)
}

// options holds the settings shared by all engines.
type options struct {
	logger     *slog.Logger
	binaryPath string
}

// Option configures an exporter.
type Option func(*options)

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBinaryPath sets the executable used by engines that run an external
// program. A bare name is looked up in PATH.
func WithBinaryPath(path string) Option {
	return func(o *options) {
		o.binaryPath = path
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// New creates the exporter for engine.
func New(engine Engine, opts ...Option) (Exporter, error) {
	switch engine {
	case EngineWkhtmltopdf:
		return NewWkhtmltopdfExporter(opts...), nil
	case EngineChrome:
		return NewChromeExporter(opts...), nil
	case EngineBuiltin:
		return NewBuiltinExporter(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// PageCount validates the PDF at path and returns its number of pages.
func PageCount(path string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // path is an artifact path chosen by the caller
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := pdfapi.Validate(f, nil); err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return 0, err
	}
	n, err := pdfapi.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// verify checks the engine output and logs the page count.
func verify(engine Engine, logger *slog.Logger, outputPath string) error {
	pages, err := PageCount(outputPath)
	if err != nil {
		return conversionFailed(engine, err, "")
	}
	if pages == 0 {
		return conversionFailed(engine, fmt.Errorf("%s has no pages", outputPath), "")
	}
	logger.Debug("pdf exported",
		"engine", engine,
		"path", outputPath,
		"pages", pages,
	)
	return nil
}
