package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sonarreport/internal/config"
	"github.com/nao1215/sonarreport/internal/database"
	"github.com/nao1215/sonarreport/internal/model"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [project]",
		Short: "Show previous report runs",
		Long: `History lists the report runs recorded by 'sonarreport generate'.

Each run shows its date, outcome, PDF engine and issue counts per severity.
The last column is the change of the issue count since the previous run of
the same project.

Examples:
  # Show the 20 most recent runs of all projects
  sonarreport history

  # Show all runs of one project
  sonarreport history -n 0 myproject

  # List the projects with recorded runs
  sonarreport history --projects

  # Keep only the 10 newest runs of a project
  sonarreport history --prune 10 myproject`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to show (0 shows all)")
	cmd.Flags().BoolP("projects", "P", false,
		"List the projects with recorded runs")
	cmd.Flags().BoolP("json", "j", false,
		"Output the runs in JSON format")
	cmd.Flags().Int("prune", -1,
		"Delete all but the newest N runs of the project")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	listProjects, err := flags.GetBool("projects")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	prune, err := flags.GetInt("prune")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	var project string
	if len(args) > 0 {
		project = args[0]
		if err := config.ValidateProject(project); err != nil {
			return err
		}
	}
	if prune >= 0 && project == "" {
		return errors.New("--prune requires a project")
	}

	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No report history found.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'sonarreport generate' to create reports.")
		return nil //nolint:nilerr // an empty history is not an error
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case listProjects:
		return printProjects(ctx, out, db)
	case prune >= 0:
		deleted, err := db.PruneRuns(ctx, project, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d runs of %s\n", deleted, project)
		return nil
	}

	runs, err := db.ListRuns(ctx, project, limit)
	if err != nil {
		return err
	}
	deltas, err := issueDeltas(ctx, db, runs)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printRunsJSON(out, runs, deltas)
	}
	printRunTable(out, project, runs, deltas)
	return nil
}

// printProjects lists the projects with recorded runs.
func printProjects(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	projects, err := db.ListProjects(ctx)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found in the report history.")
		return nil
	}

	fmt.Fprintf(out, "Projects (%d):\n\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(out, "  • %s\n", p)
	}
	fmt.Fprintln(out, "\nUse 'sonarreport history <project>' to see the runs of a project.")
	return nil
}

// issueDeltas returns, for each run, the change of the issue count since
// the previous run of the same project. Runs without a predecessor map to nil.
func issueDeltas(ctx context.Context, db *database.HistoryDB, runs []database.RunRecord) ([]*int, error) {
	deltas := make([]*int, len(runs))
	// olderRuns caches the full history per project, newest first.
	olderRuns := make(map[string][]database.RunRecord)

	for i, run := range runs {
		history, ok := olderRuns[run.Project]
		if !ok {
			var err error
			history, err = db.ListRuns(ctx, run.Project, 0)
			if err != nil {
				return nil, err
			}
			olderRuns[run.Project] = history
		}

		for j, h := range history {
			if h.ID != run.ID {
				continue
			}
			if j+1 < len(history) {
				d := run.IssueCount - history[j+1].IssueCount
				deltas[i] = &d
			}
			break
		}
	}
	return deltas, nil
}

// formatDelta renders an issue count change as "+3", "-2", "0" or "-".
func formatDelta(d *int) string {
	switch {
	case d == nil:
		return "-"
	case *d > 0:
		return "+" + strconv.Itoa(*d)
	default:
		return strconv.Itoa(*d)
	}
}

// printRunTable writes runs as a text table.
func printRunTable(out io.Writer, project string, runs []database.RunRecord, deltas []*int) {
	if len(runs) == 0 {
		if project != "" {
			fmt.Fprintf(out, "No report history found for %s\n", project)
		} else {
			fmt.Fprintln(out, "No report history found.")
		}
		fmt.Fprintln(out, "\nUse 'sonarreport generate' to create reports.")
		return
	}

	title := "Report history"
	if project != "" {
		title += " for " + project
	}
	fmt.Fprintf(out, "%s (%d runs):\n\n", title, len(runs))

	fmt.Fprintf(out, "  %-5s  %-19s  %-20s  %-8s  %-11s  %-28s  %6s  %5s\n",
		"ID", "Date", "Project", "Status", "Engine", "B/C/Ma/Mi/I", "Issues", "Δ")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 116))

	for i, run := range runs {
		engine := run.Engine
		if engine == "" {
			engine = "-"
		}
		fmt.Fprintf(out, "  %-5d  %-19s  %-20s  %-8s  %-11s  %-28s  %6d  %5s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(run.Project, 20),
			run.Status,
			engine,
			severityCounts(&run),
			run.IssueCount,
			formatDelta(deltas[i]),
		)
		if run.Error != "" {
			fmt.Fprintf(out, "         error: %s\n", run.Error)
		}
	}
}

// severityCounts renders the per-level counts as "1/0/4/2/0".
func severityCounts(run *database.RunRecord) string {
	parts := make([]string, 0, len(model.Severities()))
	for _, lvl := range model.Severities() {
		parts = append(parts, strconv.Itoa(run.Count(lvl)))
	}
	return strings.Join(parts, "/")
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// historyEntry is the JSON shape of one run.
type historyEntry struct {
	ID           int64          `json:"id"`
	RunID        string         `json:"run_id,omitempty"`
	Project      string         `json:"project"`
	StartedAt    string         `json:"started_at"`
	DurationMS   int64          `json:"duration_ms"`
	Status       string         `json:"status"`
	Engine       string         `json:"engine,omitempty"`
	Fetched      bool           `json:"fetched"`
	IssueCount   int            `json:"issue_count"`
	Delta        *int           `json:"delta"`
	Summary      map[string]int `json:"summary"`
	HTMLPath     string         `json:"html_path,omitempty"`
	PDFPath      string         `json:"pdf_path,omitempty"`
	MarkdownPath string         `json:"markdown_path,omitempty"`
	PageCount    int            `json:"page_count,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// printRunsJSON writes runs as a JSON array.
func printRunsJSON(out io.Writer, runs []database.RunRecord, deltas []*int) error {
	entries := make([]historyEntry, 0, len(runs))
	for i, run := range runs {
		entries = append(entries, historyEntry{
			ID:           run.ID,
			RunID:        run.RunID,
			Project:      run.Project,
			StartedAt:    run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			DurationMS:   run.Duration.Milliseconds(),
			Status:       string(run.Status),
			Engine:       run.Engine,
			Fetched:      run.Fetched,
			IssueCount:   run.IssueCount,
			Delta:        deltas[i],
			Summary:      run.Summary,
			HTMLPath:     run.HTMLPath,
			PDFPath:      run.PDFPath,
			MarkdownPath: run.MarkdownPath,
			PageCount:    run.PageCount,
			Error:        run.Error,
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
