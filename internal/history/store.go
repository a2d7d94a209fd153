// Package history records completed export runs in a local SQLite
// database, so past runs can be inspected without re-querying Gmail.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mailtools/gmail2md/internal/export"
)

var createTableSQL = []string{
	// One row per export run, recorded after the run finishes
	// (including cancelled and partially failed runs).
	`
CREATE TABLE IF NOT EXISTS exports (
id INTEGER PRIMARY KEY AUTOINCREMENT,
started_at TEXT NOT NULL,
duration_ms INTEGER NOT NULL,
query TEXT NOT NULL,
output_dir TEXT NOT NULL,
found INTEGER NOT NULL,
written INTEGER NOT NULL,
skipped INTEGER NOT NULL,
failed INTEGER NOT NULL,
dry_run INTEGER NOT NULL,
cancelled INTEGER NOT NULL
);`,
	// One row per file written by a run. sender/subject are kept for
	// display in 'history show'; the files themselves are the source
	// of truth.
	`
CREATE TABLE IF NOT EXISTS export_files (
export_id INTEGER NOT NULL,
message_id TEXT NOT NULL,
thread_id TEXT NOT NULL,
path TEXT NOT NULL,
subject TEXT NOT NULL,
sender TEXT NOT NULL,
date TEXT,
FOREIGN KEY (export_id) REFERENCES exports (id)
);`,
}

// Store is a handle to the history database.
type Store struct {
	db *sql.DB
}

// Run is one recorded export run.
type Run struct {
	ID        int64
	StartedAt time.Time
	Duration  time.Duration
	Query     string
	OutputDir string
	Found     int
	Written   int
	Skipped   int
	Failed    int
	DryRun    bool
	Cancelled bool
}

// Stats aggregates across all recorded runs.
type Stats struct {
	Runs         int
	TotalWritten int
	TotalFailed  int
	LastRun      time.Time
}

func dsnFromPath(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	// Polling a locked database for 5s (the driver default) is too
	// short when another export is finishing up.
	u := url.URL{Scheme: "file", Path: path}
	u.RawQuery = url.Values{"_busy_timeout": {"60000"}}.Encode()
	return u.String()
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsnFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", path, err)
	}

	for _, stmt := range createTableSQL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing history schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished run and its written files in one
// transaction.
func (s *Store) Record(ctx context.Context, query string, result *export.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
INSERT INTO exports (started_at, duration_ms, query, output_dir, found, written, skipped, failed, dry_run, cancelled)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.StartedAt.UTC().Format(time.RFC3339),
		result.Duration.Milliseconds(),
		query,
		result.OutputDir,
		result.Found,
		result.Written,
		result.Skipped,
		result.Failed,
		boolToInt(result.DryRun),
		boolToInt(result.Cancelled),
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	insertFile, err := tx.PrepareContext(ctx, `
INSERT INTO export_files (export_id, message_id, thread_id, path, subject, sender, date)
VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return 0, fmt.Errorf("preparing file insert: %w", err)
	}
	defer insertFile.Close()

	for _, f := range result.Files {
		var date any
		if f.DateKnown {
			date = f.Date.UTC().Format(time.RFC3339)
		}
		if _, err := insertFile.ExecContext(ctx, runID, f.MessageID, f.ThreadID, f.Path, f.Subject, f.From, date); err != nil {
			return 0, fmt.Errorf("recording file %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, duration_ms, query, output_dir, found, written, skipped, failed, dry_run, cancelled
FROM exports ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			startedAt         string
			durationMS        int64
			dryRun, cancelled int
		)
		if err := rows.Scan(&r.ID, &startedAt, &durationMS, &r.Query, &r.OutputDir,
			&r.Found, &r.Written, &r.Skipped, &r.Failed, &dryRun, &cancelled); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.DryRun = dryRun != 0
		r.Cancelled = cancelled != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Files returns the files written by a run.
func (s *Store) Files(ctx context.Context, runID int64) ([]export.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT message_id, thread_id, path, subject, sender, date
FROM export_files WHERE export_id = $1 ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []export.FileRecord
	for rows.Next() {
		var (
			f    export.FileRecord
			date sql.NullString
		)
		if err := rows.Scan(&f.MessageID, &f.ThreadID, &f.Path, &f.Subject, &f.From, &date); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		if date.Valid {
			if t, err := time.Parse(time.RFC3339, date.String); err == nil {
				f.Date = t
				f.DateKnown = true
			}
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Summarize aggregates all recorded runs.
func (s *Store) Summarize(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		last  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(written), 0), COALESCE(SUM(failed), 0), MAX(started_at)
FROM exports`).Scan(&stats.Runs, &stats.TotalWritten, &stats.TotalFailed, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating history: %w", err)
	}
	if last.Valid {
		stats.LastRun, _ = time.Parse(time.RFC3339, last.String)
	}
	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
