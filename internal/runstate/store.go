// Package runstate persists per-stage completion records for pipeline
// runs. The ledger is the explicit resumability marker: a stage is skipped
// on rerun only when its ledger row says done and its artifact still
// exists on disk.
package runstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status is a stage outcome recorded in the ledger.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// ErrNoRun means no run is recorded for the key.
var ErrNoRun = errors.New("no run recorded")

// StageRecord is one ledger row.
type StageRecord struct {
	Stage     string
	Status    Status
	Detail    string
	UpdatedAt time.Time
}

// Run is the identity row for one source video.
type Run struct {
	ID        string
	Key       string
	Source    string
	CreatedAt time.Time
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_key    TEXT PRIMARY KEY,
    run_id     TEXT NOT NULL,
    source     TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_stages (
    run_key    TEXT NOT NULL,
    stage      TEXT NOT NULL,
    status     TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL,
    PRIMARY KEY (run_key, stage)
);
`

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to (or creates) the ledger database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure state directory: %w", err)
	}
	dbPath := filepath.Join(dir, "runstate.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureRun returns the run identity for runKey, creating it on first use.
func (s *Store) EnsureRun(ctx context.Context, runKey, source string) (Run, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_key, run_id, source, created_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(run_key) DO NOTHING`,
		runKey, uuid.NewString(), source, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("ensure run: %w", err)
	}
	return s.getRun(ctx, runKey)
}

// Lookup returns the recorded run for runKey without creating one.
// ErrNoRun means the source has never been processed.
func (s *Store) Lookup(ctx context.Context, runKey string) (Run, error) {
	r, err := s.getRun(ctx, runKey)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNoRun, runKey)
	}
	return r, err
}

func (s *Store) getRun(ctx context.Context, runKey string) (Run, error) {
	var r Run
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_key, run_id, source, created_at FROM runs WHERE run_key = ?`, runKey,
	).Scan(&r.Key, &r.ID, &r.Source, &created)
	if err != nil {
		return Run{}, fmt.Errorf("load run %s: %w", runKey, err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return r, nil
}

// MarkStage upserts the status record for a stage.
func (s *Store) MarkStage(ctx context.Context, runKey, stage string, status Status, detail string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_stages (run_key, stage, status, detail, updated_at) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(run_key, stage) DO UPDATE SET status=excluded.status, detail=excluded.detail, updated_at=excluded.updated_at`,
		runKey, stage, status, detail, now,
	)
	if err != nil {
		return fmt.Errorf("mark stage %s/%s: %w", runKey, stage, err)
	}
	return nil
}

// StageDone reports whether the stage has a done record.
func (s *Store) StageDone(ctx context.Context, runKey, stage string) (bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM run_stages WHERE run_key = ? AND stage = ?`, runKey, stage,
	).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stage status %s/%s: %w", runKey, stage, err)
	}
	return Status(status) == StatusDone, nil
}

// Stages returns all ledger rows for a run in recording order.
func (s *Store) Stages(ctx context.Context, runKey string) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, status, detail, updated_at FROM run_stages WHERE run_key = ? ORDER BY updated_at, stage`,
		runKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list stages %s: %w", runKey, err)
	}
	defer rows.Close()

	var out []StageRecord
	for rows.Next() {
		var rec StageRecord
		var status, updated string
		if err := rows.Scan(&rec.Stage, &status, &rec.Detail, &updated); err != nil {
			return nil, fmt.Errorf("scan stage row: %w", err)
		}
		rec.Status = Status(status)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, rec)
	}
	return out, rows.Err()
}
