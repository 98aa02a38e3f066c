// Package history implements the optional compile-run recorder: a SQLite
// database, outside any workspace's lifecycle, that persists one row per
// compile() call for inspecting test runs across time. Workspaces
// themselves remain ephemeral (spec §6, "Persisted state: none"); this
// package is an explicit opt-in the caller wires up separately.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Recorder persists compile-run records to a SQLite database.
type Recorder struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies any pending migrations.
func Open(ctx context.Context, path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("jct/history: opening database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("jct/history: enabling WAL mode: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Recorder{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := newSQLiteDriver(db)
	if err != nil {
		return fmt.Errorf("jct/history: building migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("jct/history: loading embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "jct-sqlite", driver)
	if err != nil {
		return fmt.Errorf("jct/history: constructing migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("jct/history: applying migrations: %w", err)
	}
	return nil
}

// Run is one recorded compile() invocation.
type Run struct {
	WorkspaceID      string
	StartedAt        time.Time
	Duration         time.Duration
	Success          bool
	FailOnWarnings   bool
	OutputTranscript string
	DiagnosticCount  int
}

// Record inserts run as a new row.
func (r *Recorder) Record(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO compile_runs
			(workspace_id, started_at, duration_millis, success, fail_on_warnings, output_transcript, diagnostic_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.WorkspaceID,
		run.StartedAt.UnixMilli(),
		run.Duration.Milliseconds(),
		boolToInt(run.Success),
		boolToInt(run.FailOnWarnings),
		run.OutputTranscript,
		run.DiagnosticCount,
	)
	if err != nil {
		return fmt.Errorf("jct/history: recording compile run: %w", err)
	}
	return nil
}

// RunsForWorkspace returns every recorded run for workspaceID, oldest
// first.
func (r *Recorder) RunsForWorkspace(ctx context.Context, workspaceID string) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT workspace_id, started_at, duration_millis, success, fail_on_warnings, output_transcript, diagnostic_count
		FROM compile_runs
		WHERE workspace_id = ?
		ORDER BY id ASC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("jct/history: querying compile runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run                         Run
			startedAtMillis             int64
			durationMillis              int64
			success, failOnWarnings     int
		)
		if err := rows.Scan(&run.WorkspaceID, &startedAtMillis, &durationMillis, &success, &failOnWarnings, &run.OutputTranscript, &run.DiagnosticCount); err != nil {
			return nil, fmt.Errorf("jct/history: scanning compile run: %w", err)
		}
		run.StartedAt = time.UnixMilli(startedAtMillis)
		run.Duration = time.Duration(durationMillis) * time.Millisecond
		run.Success = success != 0
		run.FailOnWarnings = failOnWarnings != 0
		out = append(out, run)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
