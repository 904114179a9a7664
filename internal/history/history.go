// Package history keeps a SQLite ledger of reconciliation runs. The ledger is
// write-only from the reconciler's point of view and is never read back into a run.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/reconcile"
)

// timeLayout has a fixed width so stored timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const defaultLimit = 20

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		error       TEXT NOT NULL DEFAULT '',
		dry_run     INTEGER NOT NULL DEFAULT 0,
		upstream    INTEGER NOT NULL DEFAULT 0,
		local       INTEGER NOT NULL DEFAULT 0,
		discovered  INTEGER NOT NULL DEFAULT 0,
		merged      INTEGER NOT NULL DEFAULT 0,
		added       INTEGER NOT NULL DEFAULT 0,
		updated     INTEGER NOT NULL DEFAULT 0,
		preserved   INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at)`,
}

// Run is one row of the ledger.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    reconcile.Outcome
	Error      string
	DryRun     bool
	Upstream   int
	Local      int
	Discovered int
	Merged     int
	Added      int
	Updated    int
	Preserved  int
	Skipped    int
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists run reports.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at path and applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// PRAGMAs apply per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()

			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()

		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := s.db.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}

		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}

	return nil
}

// Record inserts a finished report.
func (s *Store) Record(ctx context.Context, report *reconcile.Report) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
			id, started_at, finished_at, outcome, error, dry_run,
			upstream, local, discovered, merged, added, updated, preserved, skipped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		string(report.Outcome),
		report.Error,
		report.DryRun,
		report.Upstream,
		report.Local,
		report.Discovered,
		report.Merged,
		len(report.Added),
		len(report.Updated),
		len(report.Preserved),
		report.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, started_at, finished_at, outcome, error, dry_run,
			upstream, local, discovered, merged, added, updated, preserved, skipped
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)

	for rows.Next() {
		var (
			run               Run
			started, finished string
			outcome           string
		)

		if err := rows.Scan(
			&run.ID, &started, &finished, &outcome, &run.Error, &run.DryRun,
			&run.Upstream, &run.Local, &run.Discovered, &run.Merged,
			&run.Added, &run.Updated, &run.Preserved, &run.Skipped,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Outcome = reconcile.Outcome(outcome)

		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}

		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
