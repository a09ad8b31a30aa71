// Package database provides SQLite-based storage for sonarreport.
//
// The HistoryDB keeps one record per report run: the project, when it ran,
// the issue counts per severity, the artifact paths and the outcome. The
// history is only read by the history command; it never influences how a
// report is rendered.
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, so the
// database is a single file in the XDG data directory and the binary stays
// easy to cross-compile.
package database
