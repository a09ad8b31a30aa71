package model

import "testing"

// TestParseSeverity tests normalization of raw severity values.
func TestParseSeverity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw      string
		expected Severity
	}{
		{"BLOCKER", SeverityBlocker},
		{"critical", SeverityCritical},
		{"Major", SeverityMajor},
		{" minor ", Severity(" MINOR ")},
		{"info", SeverityInfo},
		{"weird", Severity("WEIRD")},
		{"", ""},
		{"   ", Severity("   ")},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			if got := ParseSeverity(tc.raw); got != tc.expected {
				t.Errorf("ParseSeverity(%q) = %q, expected %q", tc.raw, got, tc.expected)
			}
		})
	}
}

// TestParseSeverityPaddedValue tests that padding keeps a value unknown.
func TestParseSeverityPaddedValue(t *testing.T) {
	t.Parallel()

	s := ParseSeverity(" major ")
	if s.Known() {
		t.Errorf("ParseSeverity(%q) = %q, expected an unknown level", " major ", s)
	}
	if s.String() != " MAJOR " {
		t.Errorf("label = %q, expected %q", s.String(), " MAJOR ")
	}
	if s.Color() != FallbackColor {
		t.Errorf("color = %q, expected the fallback color", s.Color())
	}
}

// TestSeverityColor tests the severity to color table.
func TestSeverityColor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityBlocker, "#e74c3c"},
		{SeverityCritical, "#e67e22"},
		{SeverityMajor, "#f1c40f"},
		{SeverityMinor, "#2ecc71"},
		{SeverityInfo, "#3498db"},
		{SeverityUnknown, FallbackColor},
		{Severity("WEIRD"), FallbackColor},
		{Severity(""), FallbackColor},
		{Severity("major"), FallbackColor},
	}

	for _, tc := range testCases {
		t.Run(string(tc.severity), func(t *testing.T) {
			t.Parallel()
			if got := tc.severity.Color(); got != tc.expected {
				t.Errorf("%q.Color() = %q, expected %q", tc.severity, got, tc.expected)
			}
		})
	}
}

// TestSeverityKnown tests that only the enumerated levels are known.
func TestSeverityKnown(t *testing.T) {
	t.Parallel()

	for _, s := range Severities() {
		if !s.Known() {
			t.Errorf("expected %q to be known", s)
		}
		if s.Level() != s {
			t.Errorf("expected %q.Level() to be itself, got %q", s, s.Level())
		}
	}

	for _, s := range []Severity{SeverityUnknown, "", "WEIRD"} {
		if s.Known() {
			t.Errorf("expected %q to be unknown", s)
		}
		if s.Level() != SeverityUnknown {
			t.Errorf("expected %q.Level() to be UNKNOWN, got %q", s, s.Level())
		}
	}
}

// TestSeveritiesOrder tests that levels are listed from most to least severe.
func TestSeveritiesOrder(t *testing.T) {
	t.Parallel()

	expected := []Severity{SeverityBlocker, SeverityCritical, SeverityMajor, SeverityMinor, SeverityInfo}
	got := Severities()
	if len(got) != len(expected) {
		t.Fatalf("expected %d severities, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("position %d: expected %q, got %q", i, expected[i], got[i])
		}
	}

	// The returned slice is a copy.
	got[0] = "CHANGED"
	if Severities()[0] != SeverityBlocker {
		t.Error("Severities() must not expose the internal slice")
	}
}

// TestSeverityColorsAreDistinct tests that every known level has its own color.
func TestSeverityColorsAreDistinct(t *testing.T) {
	t.Parallel()

	seen := make(map[string]Severity)
	for _, s := range Severities() {
		c := s.Color()
		if c == FallbackColor {
			t.Errorf("%q uses the fallback color", s)
		}
		if prev, ok := seen[c]; ok {
			t.Errorf("%q and %q share color %s", prev, s, c)
		}
		seen[c] = s
	}
}
