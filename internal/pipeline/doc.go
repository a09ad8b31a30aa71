// Package pipeline runs the steps that turn an issue list into report
// artifacts.
//
// A report run is processed by a sequence of steps: optionally fetch the
// issues from SonarQube, load them, render the HTML document, write it,
// optionally write the Markdown summary, export the PDF and record the run
// in the history database. Each step implements Step and updates the shared
// model.ReportRun.
//
// The pipeline stops at the first failing step. Artifacts written by earlier
// steps stay on disk, so a failed PDF export still leaves the HTML report
// behind. Final steps, such as recording the history, run regardless of the
// outcome.
//
// BatchProcessor runs the pipeline for several projects concurrently with
// errgroup. Each project has its own artifact paths; runs share nothing but
// the history database.
package pipeline
