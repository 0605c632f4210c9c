// Package state persists a local run history for audit and provenance.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status values recorded per run.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Entry is one recorded invocation.
type Entry struct {
	ID           int64
	TaskName     string
	WorkflowID   string
	Status       string
	Command      string
	ExitCode     int
	ArtifactPath string
	Error        string
	StartedAt    time.Time
	EndedAt      time.Time
}

// History is a SQLite-backed append-only run log.
type History struct {
	db *sql.DB
}

// DefaultPath returns the default history database path.
func DefaultPath() string {
	return filepath.Join(".openrelik", "history.db")
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	task_name     TEXT NOT NULL,
	workflow_id   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	command       TEXT NOT NULL DEFAULT '',
	exit_code     INTEGER NOT NULL DEFAULT 0,
	artifact_path TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMP,
	ended_at      TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_workflow ON runs(workflow_id);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close releases the database handle.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one run entry.
func (h *History) Record(ctx context.Context, e Entry) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO runs (task_name, workflow_id, status, command, exit_code,
			artifact_path, error, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TaskName, e.WorkflowID, e.Status, e.Command, e.ExitCode,
		e.ArtifactPath, e.Error, e.StartedAt, e.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, task_name, workflow_id, status, command, exit_code,
			artifact_path, error, started_at, ended_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TaskName, &e.WorkflowID, &e.Status,
			&e.Command, &e.ExitCode, &e.ArtifactPath, &e.Error,
			&e.StartedAt, &e.EndedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
