// Package store keeps a local SQLite history of past runs so regressions can
// be compared across report files. History is best-effort: a broken store
// never fails a run.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"crudprobe/internal/exerciser"
	"crudprobe/internal/logging"

	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	base_url    TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	total       INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	errored     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	type          TEXT NOT NULL,
	source_url    TEXT NOT NULL,
	target_url    TEXT NOT NULL,
	label         TEXT NOT NULL,
	status        TEXT NOT NULL,
	response_ms   INTEGER NOT NULL,
	error_message TEXT NOT NULL,
	timestamp     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
`

// History is the SQLite-backed run archive.
type History struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &History{db: db, log: logging.Get(logging.CategoryReport)}, nil
}

// Close releases the database handle.
func (h *History) Close() error {
	return h.db.Close()
}

// RunRecord summarizes one archived run.
type RunRecord struct {
	ID         string
	BaseURL    string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Passed     int
	Failed     int
	Errored    int
}

// SaveRun archives one finished run with its results and returns the run id.
func (h *History) SaveRun(ctx context.Context, baseURL string, started, finished time.Time, results []exerciser.TestResult) (string, error) {
	var passed, failed, errored int
	for _, r := range results {
		switch r.Status {
		case exerciser.StatusPass:
			passed++
		case exerciser.StatusFail:
			failed++
		case exerciser.StatusError:
			errored++
		}
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, base_url, started_at, finished_at, total, passed, failed, errored)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, baseURL,
		started.Format(time.RFC3339), finished.Format(time.RFC3339),
		len(results), passed, failed, errored)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, type, source_url, target_url, label, status, response_ms, error_message, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err := stmt.ExecContext(ctx,
			runID, r.Type, r.SourceURL, r.TargetURL, r.Label,
			string(r.Status), r.ResponseTime.Milliseconds(),
			r.ErrorMessage, r.Timestamp.Format(time.RFC3339))
		if err != nil {
			return "", fmt.Errorf("insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit history: %w", err)
	}
	h.log.Info("run archived", zap.String("run_id", runID), zap.Int("results", len(results)))
	return runID, nil
}

// RecentRuns lists the most recent archived runs, newest first.
func (h *History) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, base_url, started_at, finished_at, total, passed, failed, errored
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		if err := rows.Scan(&rec.ID, &rec.BaseURL, &started, &finished,
			&rec.Total, &rec.Passed, &rec.Failed, &rec.Errored); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, started)
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FailuresForRun lists the non-passing results of one archived run.
func (h *History) FailuresForRun(ctx context.Context, runID string) ([]exerciser.TestResult, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT type, source_url, target_url, label, status, response_ms, error_message, timestamp
		 FROM results WHERE run_id = ? AND status != ? ORDER BY timestamp`,
		runID, string(exerciser.StatusPass))
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []exerciser.TestResult
	for rows.Next() {
		var r exerciser.TestResult
		var status, ts string
		var responseMs int64
		if err := rows.Scan(&r.Type, &r.SourceURL, &r.TargetURL, &r.Label,
			&status, &responseMs, &r.ErrorMessage, &ts); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Status = exerciser.Status(status)
		r.ResponseTime = time.Duration(responseMs) * time.Millisecond
		r.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}
