package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn and applies migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to an in-memory database is a separate database.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS stream_runs (
			run_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			endpoint_name TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			error TEXT,
			agents TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stream_runs_session ON stream_runs(session_id, started_at)`,
		`CREATE TABLE IF NOT EXISTS stream_events (
			event_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			agent TEXT,
			timestamp TEXT,
			raw TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES stream_runs(run_id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_stream_events_run_seq ON stream_events(run_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateStreamRun inserts a new run.
func (s *SQLiteStore) CreateStreamRun(ctx context.Context, run *domain.StreamRun) error {
	agents, err := encodeAgents(run.Agents)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stream_runs (run_id, session_id, endpoint_name, status, started_at, agents) VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SessionID, run.EndpointName, run.Status, run.StartedAt, agents)
	return err
}

const runColumns = `run_id, session_id, endpoint_name, status, started_at, ended_at, error, agents`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.StreamRun, error) {
	var run domain.StreamRun
	var endedAt sql.NullTime
	var errMsg, agents sql.NullString
	if err := row.Scan(&run.RunID, &run.SessionID, &run.EndpointName, &run.Status, &run.StartedAt, &endedAt, &errMsg, &agents); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	run.Error = errMsg.String
	if agents.Valid && agents.String != "" {
		if err := json.Unmarshal([]byte(agents.String), &run.Agents); err != nil {
			return nil, fmt.Errorf("failed to decode agents for run %s: %w", run.RunID, err)
		}
	}
	return &run, nil
}

// GetStreamRun retrieves a run by ID. A missing run returns nil, nil.
func (s *SQLiteStore) GetStreamRun(ctx context.Context, runID string) (*domain.StreamRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM stream_runs WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// GetLatestRunForSession returns the most recently started run of a session.
func (s *SQLiteStore) GetLatestRunForSession(ctx context.Context, sessionID string) (*domain.StreamRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM stream_runs WHERE session_id = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListStreamRuns lists runs newest first. An empty sessionID lists all runs.
func (s *SQLiteStore) ListStreamRuns(ctx context.Context, sessionID string, limit int) ([]domain.StreamRun, error) {
	query := `SELECT ` + runColumns + ` FROM stream_runs`
	var args []interface{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.StreamRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// UpdateStreamRunCompleted records the terminal state of a run.
func (s *SQLiteStore) UpdateStreamRunCompleted(ctx context.Context, runID string, status domain.StreamStatus, errMsg string, agents map[domain.AgentID]string) error {
	encoded, err := encodeAgents(agents)
	if err != nil {
		return err
	}
	var errStr sql.NullString
	if errMsg != "" {
		errStr = sql.NullString{String: errMsg, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE stream_runs SET status = ?, ended_at = ?, error = ?, agents = ? WHERE run_id = ?`,
		status, time.Now(), errStr, encoded, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// CreateStreamEvent inserts a parsed event.
func (s *SQLiteStore) CreateStreamEvent(ctx context.Context, event *domain.StreamEventRecord) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stream_events (event_id, run_id, session_id, seq, type, agent, timestamp, raw, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID, event.RunID, event.SessionID, event.Seq, event.Type, event.Agent, event.Timestamp, string(event.Raw), createdAt)
	return err
}

// GetStreamEvents returns events of a run with seq greater than afterSeq in
// order.
func (s *SQLiteStore) GetStreamEvents(ctx context.Context, runID string, afterSeq int64, limit int) ([]domain.StreamEventRecord, error) {
	query := `SELECT event_id, run_id, session_id, seq, type, agent, timestamp, raw, created_at FROM stream_events WHERE run_id = ? AND seq > ? ORDER BY seq ASC`
	args := []interface{}{runID, afterSeq}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.StreamEventRecord
	for rows.Next() {
		var ev domain.StreamEventRecord
		var agent, ts sql.NullString
		var raw string
		if err := rows.Scan(&ev.EventID, &ev.RunID, &ev.SessionID, &ev.Seq, &ev.Type, &agent, &ts, &raw, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Agent = agent.String
		ev.Timestamp = ts.String
		ev.Raw = json.RawMessage(raw)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func encodeAgents(agents map[domain.AgentID]string) (sql.NullString, error) {
	if len(agents) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(agents)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode agents: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
