package model

// Summary counts issues per severity level.
type Summary struct {
	// Counts holds the number of issues for each known level and for
	// SeverityUnknown.
	Counts map[Severity]int `json:"counts"`

	// Total is the number of issues summarized.
	Total int `json:"total"`
}

// Summarize counts the issues by normalized severity. Nil entries are skipped.
func Summarize(issues []*Issue) Summary {
	s := Summary{Counts: make(map[Severity]int, len(severityColors))}
	for _, lvl := range orderedSeverities {
		s.Counts[lvl] = 0
	}
	s.Counts[SeverityUnknown] = 0

	for _, issue := range issues {
		if issue == nil {
			continue
		}
		s.Counts[issue.Level().Level()]++
		s.Total++
	}
	return s
}

// Count returns the number of issues at the given level.
func (s Summary) Count(level Severity) int {
	return s.Counts[level]
}

// Worst returns the most severe known level with at least one issue.
// It returns SeverityUnknown when only unknown issues exist and "" when the
// summary is empty.
func (s Summary) Worst() Severity {
	for _, lvl := range orderedSeverities {
		if s.Counts[lvl] > 0 {
			return lvl
		}
	}
	if s.Counts[SeverityUnknown] > 0 {
		return SeverityUnknown
	}
	return ""
}

// HasIssues reports whether any issue was summarized.
func (s Summary) HasIssues() bool {
	return s.Total > 0
}
