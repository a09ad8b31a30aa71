package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Severity is a SonarQube issue severity level in its normalized,
// upper-case form.
//
// Values outside the known set are kept verbatim so that the report can
// still print them; they resolve to SeverityUnknown for styling purposes.
type Severity string

const (
	// SeverityBlocker marks issues that must be fixed before release.
	SeverityBlocker Severity = "BLOCKER"

	// SeverityCritical marks issues with a high probability of impact.
	SeverityCritical Severity = "CRITICAL"

	// SeverityMajor marks quality flaws with a significant impact.
	SeverityMajor Severity = "MAJOR"

	// SeverityMinor marks quality flaws with a small impact.
	SeverityMinor Severity = "MINOR"

	// SeverityInfo marks informational findings.
	SeverityInfo Severity = "INFO"

	// SeverityUnknown is the bucket for missing or unrecognized severities.
	// It is never produced by ParseSeverity; use Level to map into it.
	SeverityUnknown Severity = "UNKNOWN"
)

// FallbackColor is the neutral color used for missing or unrecognized
// severities.
const FallbackColor = "#7f8c8d"

// severityColors maps every known severity to its display color.
// Adding a level is a one-line change here plus an entry in orderedSeverities.
var severityColors = map[Severity]string{
	SeverityBlocker:  "#e74c3c",
	SeverityCritical: "#e67e22",
	SeverityMajor:    "#f1c40f",
	SeverityMinor:    "#2ecc71",
	SeverityInfo:     "#3498db",
	SeverityUnknown:  FallbackColor,
}

// orderedSeverities lists the known levels from most to least severe.
var orderedSeverities = []Severity{
	SeverityBlocker,
	SeverityCritical,
	SeverityMajor,
	SeverityMinor,
	SeverityInfo,
}

// upper is a locale-independent upper-casing caser.
// A cases.Caser is stateful and not safe for concurrent use, so ParseSeverity
// builds its own.
func upper() cases.Caser {
	return cases.Upper(language.Und)
}

// ParseSeverity normalizes a raw severity value.
// The result is the upper-cased input as given, surrounding whitespace
// included, so " major " is not a known level. The empty string stays empty.
func ParseSeverity(raw string) Severity {
	if raw == "" {
		return ""
	}
	return Severity(upper().String(raw))
}

// Known reports whether s is one of the enumerated levels.
func (s Severity) Known() bool {
	_, ok := severityColors[s]
	return ok && s != SeverityUnknown
}

// Level returns s when it is a known level and SeverityUnknown otherwise.
func (s Severity) Level() Severity {
	if s.Known() {
		return s
	}
	return SeverityUnknown
}

// Color returns the display color of s, or FallbackColor when s is not a
// known level.
func (s Severity) Color() string {
	return severityColors[s.Level()]
}

// String returns the label printed for s.
func (s Severity) String() string {
	return string(s)
}

// Severities returns the known levels from most to least severe.
func Severities() []Severity {
	out := make([]Severity, len(orderedSeverities))
	copy(out, orderedSeverities)
	return out
}
