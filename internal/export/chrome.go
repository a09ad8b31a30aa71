package export

import (
	"context"
	"errors"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// browserCandidates are the executable names searched in PATH, in order.
var browserCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// A4 paper size in inches.
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

// ChromeExporter prints markup to PDF with a headless Chrome or Chromium.
type ChromeExporter struct {
	options
}

// NewChromeExporter creates a ChromeExporter. Without WithBinaryPath the
// browser is searched in PATH.
func NewChromeExporter(opts ...Option) *ChromeExporter {
	return &ChromeExporter{options: newOptions(opts)}
}

// Engine returns EngineChrome.
func (e *ChromeExporter) Engine() Engine {
	return EngineChrome
}

// findBrowser resolves the browser executable.
func (e *ChromeExporter) findBrowser() (string, error) {
	if e.binaryPath != "" {
		return exec.LookPath(e.binaryPath)
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil && path != "" {
			return path, nil
		}
	}
	return "", errors.New("no Chrome or Chromium executable in PATH")
}

// Export opens markupPath in the browser and prints it with backgrounds.
func (e *ChromeExporter) Export(ctx context.Context, markupPath, outputPath string) error {
	bin, err := e.findBrowser()
	if err != nil {
		return toolNotFound(EngineChrome, err)
	}

	abs, err := filepath.Abs(markupPath)
	if err != nil {
		return conversionFailed(EngineChrome, err, "")
	}
	if _, err := os.Stat(abs); err != nil {
		return conversionFailed(EngineChrome, err, "")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(bin),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("allow-file-access-from-files", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	e.logger.Debug("printing with browser", "binary", bin, "markup", abs)

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(fileURL(abs)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return conversionFailed(EngineChrome, err, "")
	}

	if err := os.WriteFile(outputPath, pdf, 0o600); err != nil {
		return conversionFailed(EngineChrome, err, "")
	}
	return verify(EngineChrome, e.logger, outputPath)
}

// fileURL returns the file:// URL of an absolute path.
func fileURL(abs string) string {
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
