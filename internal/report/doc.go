// Package report renders issue sequences into report documents.
//
// The HTMLRenderer is the core of the tool: it turns a project identifier
// and an ordered issue sequence into a deterministic, self-contained HTML
// document with one table row per issue. Every text field is escaped and
// severity labels are colored from a fixed table.
//
// Writers implement the Writer interface and can be composed with
// MultiWriter:
//   - HTMLWriter: the rendered HTML document
//   - MarkdownWriter: a Markdown companion with a severity summary
//   - SimpleWriter: a plain-text summary for terminal display
//   - JSONWriter: the normalized issues with their summary
package report
