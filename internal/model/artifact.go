package model

import "path/filepath"

// Artifact name suffixes. Every file of a run is named
// "{project}_{suffix}" inside the output directory.
const (
	IssuesSuffix   = "sonar_issues_report.json"
	HTMLSuffix     = "sonar_report.html"
	PDFSuffix      = "sonar_report.pdf"
	MarkdownSuffix = "sonar_report.md"
)

// ArtifactPaths holds the locations of the input and output files of one
// report run.
type ArtifactPaths struct {
	// Issues is the JSON issue list read by the loader.
	Issues string `json:"issues"`

	// HTML is the rendered markup document.
	HTML string `json:"html"`

	// PDF is the paginated document produced by the exporter.
	PDF string `json:"pdf"`

	// Markdown is the optional Markdown summary.
	Markdown string `json:"markdown"`
}

// NewArtifactPaths derives all artifact paths for project inside dir.
func NewArtifactPaths(dir, project string) ArtifactPaths {
	name := func(suffix string) string {
		return filepath.Join(dir, project+"_"+suffix)
	}
	return ArtifactPaths{
		Issues:   name(IssuesSuffix),
		HTML:     name(HTMLSuffix),
		PDF:      name(PDFSuffix),
		Markdown: name(MarkdownSuffix),
	}
}
