// Package store persists pipeline run history to a local SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"icdcheck/internal/pipeline"
)

// Run is one persisted agent/document processing record.
type Run struct {
	ID           string                `json:"id"`
	StartedAt    time.Time             `json:"started_at"`
	FinishedAt   time.Time             `json:"finished_at"`
	Agent        string                `json:"agent"`
	ChartID      string                `json:"chart_id,omitempty"`
	AllConfirmed bool                  `json:"all_confirmed"`
	Codes        []pipeline.CodeResult `json:"codes"`
}

// Store manages the run history database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// New creates or opens a run history store at path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		agent TEXT NOT NULL,
		chart_id TEXT,
		all_confirmed INTEGER NOT NULL DEFAULT 0,
		codes_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_agent ON runs(agent);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists one pipeline result and returns its generated id.
func (s *Store) SaveRun(res *pipeline.Result, startedAt, finishedAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	codesJSON, err := json.Marshal(res.Codes)
	if err != nil {
		return "", fmt.Errorf("failed to marshal codes: %w", err)
	}

	id := uuid.NewString()
	chartID := ""
	if res.Document != nil {
		chartID = res.Document.ChartID
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (id, started_at, finished_at, agent, chart_id, all_confirmed, codes_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, startedAt.UTC(), finishedAt.UTC(), res.Agent, chartID, res.AllConfirmed, string(codesJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, agent, chart_id, all_confirmed, codes_json
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var codesJSON string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Agent, &r.ChartID, &r.AllConfirmed, &codesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(codesJSON), &r.Codes); err != nil {
			return nil, fmt.Errorf("failed to decode codes for run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
