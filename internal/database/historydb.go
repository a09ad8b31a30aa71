package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sonarreport/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "sonarreport.db"

// timestampLayout stores timestamps with a fixed width so that they sort
// lexically in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run record does not exist.
var ErrRunNotFound = errors.New("report run not found")

// HistoryDB provides SQLite-based storage for report runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so that concurrent batch runs
	// do not block readers.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; batch workers share this connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL DEFAULT '',
		project TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		engine TEXT NOT NULL DEFAULT '',
		fetched INTEGER NOT NULL DEFAULT 0,
		issue_count INTEGER NOT NULL DEFAULT 0,
		summary TEXT NOT NULL DEFAULT '{}',
		html_path TEXT NOT NULL DEFAULT '',
		pdf_path TEXT NOT NULL DEFAULT '',
		markdown_path TEXT NOT NULL DEFAULT '',
		page_count INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_project ON report_runs(project);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON report_runs(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored report run.
type RunRecord struct {
	ID           int64
	RunID        string
	Project      string
	StartedAt    time.Time
	Duration     time.Duration
	Status       model.RunStatus
	Engine       string
	Fetched      bool
	IssueCount   int
	Summary      map[string]int
	HTMLPath     string
	PDFPath      string
	MarkdownPath string
	PageCount    int
	Error        string
}

// Count returns the number of issues recorded for a severity level.
func (r *RunRecord) Count(level model.Severity) int {
	return r.Summary[level.String()]
}

// RecordRun stores the outcome of run and returns the record ID.
// Paths of artifacts that were not written are stored empty.
func (hdb *HistoryDB) RecordRun(ctx context.Context, run *model.ReportRun) (int64, error) {
	counts := make(map[string]int, len(run.Summary.Counts))
	for lvl, n := range run.Summary.Counts {
		counts[lvl.String()] = n
	}
	summaryJSON, err := json.Marshal(counts)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}

	var htmlPath, pdfPath, mdPath string
	if run.HTMLWritten {
		htmlPath = run.Paths.HTML
	}
	if run.PDFWritten {
		pdfPath = run.Paths.PDF
	}
	if run.MarkdownWritten {
		mdPath = run.Paths.Markdown
	}

	errText := run.ErrorMessage
	if errText == "" && run.Error != nil {
		errText = run.Error.Error()
	}

	query := `
	INSERT INTO report_runs (run_id, project, started_at, duration_ms, status, engine, fetched,
		issue_count, summary, html_path, pdf_path, markdown_path, page_count, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		run.RunID,
		run.Project,
		run.StartedAt.UTC().Format(timestampLayout),
		run.Duration().Milliseconds(),
		string(run.Status()),
		run.Engine,
		run.Fetched,
		run.Summary.Total,
		string(summaryJSON),
		htmlPath,
		pdfPath,
		mdPath,
		run.PageCount,
		errText,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}

	return result.LastInsertId()
}

const selectRuns = `
	SELECT id, run_id, project, started_at, duration_ms, status, engine, fetched,
		issue_count, summary, html_path, pdf_path, markdown_path, page_count, error
	FROM report_runs
`

// ListRuns returns the most recent runs, newest first.
// An empty project lists runs of every project; a limit of zero or less
// returns all runs.
func (hdb *HistoryDB) ListRuns(ctx context.Context, project string, limit int) ([]RunRecord, error) {
	query := selectRuns + " WHERE 1=1"
	args := make([]any, 0, 2)

	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}

	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// LatestRun returns the most recent run of project.
// It returns ErrRunNotFound when the project has no runs.
func (hdb *HistoryDB) LatestRun(ctx context.Context, project string) (*RunRecord, error) {
	runs, err := hdb.ListRuns(ctx, project, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, project)
	}
	return &runs[0], nil
}

// GetRun retrieves a run by its database ID.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := hdb.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRunNotFound, id)
	}
	return rec, err
}

// ListProjects returns every project with at least one run, sorted by name.
func (hdb *HistoryDB) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT DISTINCT project FROM report_runs ORDER BY project`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]string, 0)
	for rows.Next() {
		var project string
		if err := rows.Scan(&project); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// PruneRuns deletes all but the newest keep runs of project and returns the
// number of deleted records.
func (hdb *HistoryDB) PruneRuns(ctx context.Context, project string, keep int) (int64, error) {
	query := `
	DELETE FROM report_runs
	WHERE project = ? AND id NOT IN (
		SELECT id FROM report_runs WHERE project = ?
		ORDER BY started_at DESC, id DESC LIMIT ?
	)
	`
	result, err := hdb.db.ExecContext(ctx, query, project, project, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var startedAt, status, summaryJSON string
	var durationMS int64

	err := row.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Project,
		&startedAt,
		&durationMS,
		&status,
		&rec.Engine,
		&rec.Fetched,
		&rec.IssueCount,
		&summaryJSON,
		&rec.HTMLPath,
		&rec.PDFPath,
		&rec.MarkdownPath,
		&rec.PageCount,
		&rec.Error,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rec.StartedAt = parseTimestamp(startedAt)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.Status = model.RunStatus(status)

	rec.Summary = make(map[string]int)
	if summaryJSON != "" {
		if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
			rec.Summary = make(map[string]int)
		}
	}

	return &rec, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp, returning the zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
