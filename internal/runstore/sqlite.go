// Package runstore persists per-run and per-unit outcomes in SQLite so dry
// runs and the daemon can report history without re-scanning documents.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed run-history store.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// UnitRecord is one unit's outcome within a run.
type UnitRecord struct {
	RunID    string
	Unit     string
	Status   string
	Reason   string
	Orphans  []string
	Recorded time.Time
}

// RunRecord summarizes one documentation run.
type RunRecord struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Written  int
	Skipped  int
	Failed   int
}

// New opens (or creates) a run-history store.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		written INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS unit_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		unit TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		orphans TEXT,
		recorded INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_unit_results_run ON unit_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_unit_results_unit ON unit_results(unit);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordUnit appends one unit outcome.
func (s *Store) RecordUnit(ctx context.Context, rec UnitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := rec.Recorded
	if recorded.IsZero() {
		recorded = time.Now()
	}

	// Orphan identifiers are stored as a JSON array; labels may contain any
	// byte a normalized label allows, including separators.
	orphans := ""
	if len(rec.Orphans) > 0 {
		encoded, err := json.Marshal(rec.Orphans)
		if err != nil {
			return fmt.Errorf("encode orphans: %w", err)
		}
		orphans = string(encoded)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO unit_results (run_id, unit, status, reason, orphans, recorded) VALUES (?, ?, ?, ?, ?, ?)",
		rec.RunID, rec.Unit, rec.Status, rec.Reason, orphans, recorded.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert unit result: %w", err)
	}
	return nil
}

// RecordRun stores the run summary.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO runs (run_id, started, finished, written, skipped, failed) VALUES (?, ?, ?, ?, ?, ?)",
		rec.RunID, rec.Started.Unix(), rec.Finished.Unix(), rec.Written, rec.Skipped, rec.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit run summaries, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, started, finished, written, skipped, failed FROM runs ORDER BY started DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished int64
		if err := rows.Scan(&rec.RunID, &started, &finished, &rec.Written, &rec.Skipped, &rec.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Started = time.Unix(started, 0)
		rec.Finished = time.Unix(finished, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UnitHistory returns outcomes for one unit, newest first.
func (s *Store) UnitHistory(ctx context.Context, unit string, limit int) ([]UnitRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, unit, status, reason, orphans, recorded FROM unit_results WHERE unit = ? ORDER BY recorded DESC LIMIT ?",
		unit, limit)
	if err != nil {
		return nil, fmt.Errorf("query unit results: %w", err)
	}
	defer rows.Close()

	var out []UnitRecord
	for rows.Next() {
		var rec UnitRecord
		var orphans string
		var recorded int64
		if err := rows.Scan(&rec.RunID, &rec.Unit, &rec.Status, &rec.Reason, &orphans, &recorded); err != nil {
			return nil, fmt.Errorf("scan unit result: %w", err)
		}
		if orphans != "" {
			if err := json.Unmarshal([]byte(orphans), &rec.Orphans); err != nil {
				return nil, fmt.Errorf("decode orphans: %w", err)
			}
		}
		rec.Recorded = time.Unix(recorded, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
