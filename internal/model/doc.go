// Package model defines the data structures shared by the loader, the
// renderers, the export engines and the history database.
//
// The main types are:
//   - Issue: one SonarQube finding as read from the issue list
//   - Severity: the normalized severity level and its display color
//   - Summary: issue counts per severity level
//   - ArtifactPaths: the file names derived from a project identifier
//   - ReportRun: the state of one report generation
//
// The types carry JSON tags so that runs can be printed and stored as-is.
package model
