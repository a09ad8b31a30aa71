package export

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
)

// defaultWkhtmltopdf is the executable looked up in PATH when no path is
// configured.
const defaultWkhtmltopdf = "wkhtmltopdf"

// WkhtmltopdfExporter converts markup with the external wkhtmltopdf tool.
type WkhtmltopdfExporter struct {
	options
}

// NewWkhtmltopdfExporter creates a WkhtmltopdfExporter.
func NewWkhtmltopdfExporter(opts ...Option) *WkhtmltopdfExporter {
	o := newOptions(opts)
	if o.binaryPath == "" {
		o.binaryPath = defaultWkhtmltopdf
	}
	return &WkhtmltopdfExporter{options: o}
}

// Engine returns EngineWkhtmltopdf.
func (e *WkhtmltopdfExporter) Engine() Engine {
	return EngineWkhtmltopdf
}

// Export runs wkhtmltopdf on markupPath.
func (e *WkhtmltopdfExporter) Export(ctx context.Context, markupPath, outputPath string) error {
	bin, err := exec.LookPath(e.binaryPath)
	if err != nil {
		return toolNotFound(EngineWkhtmltopdf, err)
	}

	// Absolute paths keep file names that start with a dash from being
	// read as options.
	src, err := filepath.Abs(markupPath)
	if err != nil {
		return conversionFailed(EngineWkhtmltopdf, err, "")
	}
	dst, err := filepath.Abs(outputPath)
	if err != nil {
		return conversionFailed(EngineWkhtmltopdf, err, "")
	}

	args := []string{
		"--quiet",
		"--encoding", "utf-8",
		"--enable-local-file-access",
		src,
		dst,
	}
	e.logger.Debug("running wkhtmltopdf", "binary", bin, "args", args)

	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec // binary is resolved from configuration, args are artifact paths
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		return conversionFailed(EngineWkhtmltopdf, err, strings.TrimSpace(string(output)))
	}

	return verify(EngineWkhtmltopdf, e.logger, dst)
}
