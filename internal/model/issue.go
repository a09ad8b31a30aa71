package model

import "strconv"

// Issue is one finding of a static analysis scan.
//
// Every field is optional in the input; absent string fields are empty and
// an absent line is nil. An Issue is not modified after it is loaded.
type Issue struct {
	// Type is the issue category (BUG, VULNERABILITY, CODE_SMELL, ...).
	Type string `json:"type,omitempty"`

	// Severity is the raw severity as found in the source.
	// Use Level to get the normalized value.
	Severity string `json:"severity,omitempty"`

	// Message is the human readable description of the issue.
	Message string `json:"message,omitempty"`

	// Component identifies the file, usually "projectKey:path/to/file".
	Component string `json:"component,omitempty"`

	// Line is the 1-based line number, nil when the issue is file-level.
	Line *int `json:"line,omitempty"`
}

// Level returns the normalized severity of the issue.
func (i *Issue) Level() Severity {
	return ParseSeverity(i.Severity)
}

// LineText returns the line number as text, or "" when it is absent.
func (i *Issue) LineText() string {
	if i.Line == nil {
		return ""
	}
	return strconv.Itoa(*i.Line)
}

// IntPtr returns a pointer to n. It is a helper for building issues with a
// line number.
func IntPtr(n int) *int {
	return &n
}
