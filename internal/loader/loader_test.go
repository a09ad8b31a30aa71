package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSource writes content to a temporary issue file and returns its path.
func writeSource(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shop_sonar_issues_report.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	return path
}

func TestFileSourceLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads issues in source order", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, `{
			"total": 3,
			"issues": [
				{"key": "a", "type": "BUG", "severity": "major", "message": "a<b", "component": "x.py", "line": 12},
				{"type": "CODE_SMELL", "severity": "INFO", "message": "second", "component": "y.go"},
				{"message": "third", "line": null, "extra": {"nested": true}}
			]
		}`)

		issues, err := NewFileSource(path).Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(issues) != 3 {
			t.Fatalf("expected 3 issues, got %d", len(issues))
		}

		first := issues[0]
		if first.Type != "BUG" || first.Severity != "major" || first.Message != "a<b" || first.Component != "x.py" {
			t.Errorf("unexpected first issue: %+v", first)
		}
		if first.Line == nil || *first.Line != 12 {
			t.Errorf("expected line 12, got %v", first.Line)
		}

		if issues[1].Message != "second" || issues[2].Message != "third" {
			t.Error("expected issues in source order")
		}
		if issues[1].Line != nil || issues[2].Line != nil {
			t.Error("expected absent and null lines to be nil")
		}
	})

	t.Run("empty issue list is not an error", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, `{"issues": []}`)
		issues, err := NewFileSource(path).Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if issues == nil || len(issues) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", issues)
		}
	})

	t.Run("missing issues field is an empty list", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, `{"paging": {"total": 0}}`)
		issues, err := NewFileSource(path).Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("expected no issues, got %d", len(issues))
		}
	})

	t.Run("missing file returns ErrSourceNotFound", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing.json")
		_, err := NewFileSource(path).Load(context.Background())
		if !errors.Is(err, ErrSourceNotFound) {
			t.Fatalf("expected ErrSourceNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), path) {
			t.Errorf("expected error to name the path, got %q", err.Error())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewFileSource(writeSource(t, `{}`)).Load(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("name is the path", func(t *testing.T) {
		t.Parallel()

		if got := NewFileSource("a/b.json").Name(); got != "a/b.json" {
			t.Errorf("expected a/b.json, got %q", got)
		}
	})
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{"empty input", ``},
		{"invalid json", `{"issues": [`},
		{"top level array", `[{"message": "x"}]`},
		{"top level null", `null`},
		{"issues not an array", `{"issues": "none"}`},
		{"record not an object", `{"issues": ["x"]}`},
		{"null record", `{"issues": [null]}`},
		{"line not a number", `{"issues": [{"line": "twelve"}]}`},
		{"fractional line", `{"issues": [{"line": 1.5}]}`},
		{"severity not a string", `{"issues": [{"severity": 3}]}`},
		{"trailing data", `{"issues": []} {}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(strings.NewReader(tc.content))
			if !errors.Is(err, ErrSourceMalformed) {
				t.Errorf("expected ErrSourceMalformed, got %v", err)
			}
		})
	}
}

func TestDecodeMalformedFromFile(t *testing.T) {
	t.Parallel()

	path := writeSource(t, `not json`)
	_, err := NewFileSource(path).Load(context.Background())
	if !errors.Is(err, ErrSourceMalformed) {
		t.Fatalf("expected ErrSourceMalformed, got %v", err)
	}
	if errors.Is(err, ErrSourceNotFound) {
		t.Error("malformed source must not be reported as not found")
	}
}
