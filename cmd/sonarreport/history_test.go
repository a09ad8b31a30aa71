package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sonarreport/internal/database"
	"github.com/nao1215/sonarreport/internal/model"
)

// seedHistory records one run per issue count for project in dbDir, oldest
// first. The newest run is a partial run.
func seedHistory(t *testing.T, dbDir, project string, counts ...int) {
	t.Helper()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, n := range counts {
		issues := make([]*model.Issue, 0, n)
		for range n {
			issues = append(issues, &model.Issue{Severity: "MAJOR"})
		}
		run := model.NewReportRun(project, t.TempDir())
		run.StartedAt = base.Add(time.Duration(i) * time.Hour)
		run.FinishedAt = run.StartedAt.Add(time.Second)
		run.Summary = model.Summarize(issues)
		run.HTMLWritten = true
		if i == len(counts)-1 {
			run.Error = errors.New("tool not found")
		}
		if _, err := db.RecordRun(t.Context(), run); err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	t.Run("table with deltas", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedHistory(t, dbDir, "proj", 5, 8, 6)

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "proj")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		for _, want := range []string{"Report history for proj (3 runs)", "partial", "+3", "-2", "error: tool not found"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedHistory(t, dbDir, "a", 1, 4)
		seedHistory(t, dbDir, "b", 2)

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "--json")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}

		var entries []historyEntry
		if err := json.Unmarshal([]byte(out), &entries); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}

		deltas := make(map[string][]*int)
		for _, e := range entries {
			deltas[e.Project] = append(deltas[e.Project], e.Delta)
		}
		if d := deltas["a"]; len(d) != 2 || d[0] == nil || *d[0] != 3 || d[1] != nil {
			t.Errorf("deltas of a = %v", d)
		}
		if d := deltas["b"]; len(d) != 1 || d[0] != nil {
			t.Errorf("deltas of b = %v", d)
		}
	})

	t.Run("limit keeps deltas of older runs", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedHistory(t, dbDir, "proj", 2, 7)

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "-n", "1", "--json", "proj")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		var entries []historyEntry
		if err := json.Unmarshal([]byte(out), &entries); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(entries) != 1 || entries[0].Delta == nil || *entries[0].Delta != 5 {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("projects", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedHistory(t, dbDir, "web", 1)
		seedHistory(t, dbDir, "api", 1)

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "--projects")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(out, "Projects (2)") || strings.Index(out, "api") > strings.Index(out, "web") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("prune", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedHistory(t, dbDir, "proj", 1, 2, 3, 4)

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "--prune", "1", "proj")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(out, "Deleted 3 runs of proj") {
			t.Errorf("unexpected output: %q", out)
		}

		if _, err := executeCommand(t, "history", "--db-dir", dbDir, "--prune", "1"); err == nil {
			t.Error("--prune without a project should fail")
		}
	})

	t.Run("no database", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "history", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(out, "No report history found.") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("invalid project", func(t *testing.T) {
		t.Parallel()

		if _, err := executeCommand(t, "history", "--db-dir", t.TempDir(), "a/b"); err == nil {
			t.Error("expected error for an invalid project identifier")
		}
	})
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	n := func(v int) *int { return &v }
	tests := []struct {
		in   *int
		want string
	}{
		{nil, "-"},
		{n(0), "0"},
		{n(4), "+4"},
		{n(-2), "-2"},
	}
	for _, tt := range tests {
		if got := formatDelta(tt.in); got != tt.want {
			t.Errorf("formatDelta(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("a-very-long-project-name", 10); got != "a-very-lo…" {
		t.Errorf("truncate() = %q", got)
	}
}
