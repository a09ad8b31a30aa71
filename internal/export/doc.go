// Package export converts rendered HTML reports into paginated PDF documents.
//
// Three engines implement the Exporter interface:
//   - wkhtmltopdf: runs the external wkhtmltopdf tool
//   - chrome: prints the page with a headless Chrome or Chromium
//   - builtin: lays out the issue table itself with fpdf, no external tool
//
// Every engine validates the produced file with pdfcpu before reporting
// success. Failures are returned as *ExportError and match ErrToolNotFound
// or ErrConversion with errors.Is.
//
// Exporters do not apply a timeout of their own; callers bound the
// conversion with the context they pass in.
package export
