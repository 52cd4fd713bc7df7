package postgres

import (
	"context"
	"fmt"
	"time"
)

// DefaultRunTable is used when no run table name is configured.
const DefaultRunTable = "scrape_runs"

// RunRow is one finished source within a run.
type RunRow struct {
	RunID      string
	Source     string
	Count      int
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunStore records per-source run outcomes.
type RunStore struct {
	pool  Pool
	table string
}

// NewRunStore constructs a run store from an existing pool.
func NewRunStore(pool Pool, table string) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := checkTable(table, DefaultRunTable)
	if err != nil {
		return nil, err
	}
	return &RunStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the run table when missing.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id uuid NOT NULL,
	source text NOT NULL,
	record_count integer NOT NULL,
	status text NOT NULL,
	error_message text,
	started_at timestamptz NOT NULL,
	finished_at timestamptz NOT NULL,
	PRIMARY KEY (run_id, source)
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// RecordRun upserts the outcome of one source.
func (s *RunStore) RecordRun(ctx context.Context, row RunRow) error {
	if row.RunID == "" || row.Source == "" {
		return fmt.Errorf("run id and source are required")
	}
	var errMsg *string
	if row.Error != "" {
		errMsg = &row.Error
	}
	query := fmt.Sprintf(`
INSERT INTO %s (run_id, source, record_count, status, error_message, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, source) DO UPDATE
SET record_count = EXCLUDED.record_count,
	status = EXCLUDED.status,
	error_message = EXCLUDED.error_message,
	finished_at = EXCLUDED.finished_at`, s.table)
	_, err := s.pool.Exec(ctx, query,
		row.RunID, row.Source, row.Count, row.Status, errMsg, row.StartedAt, row.FinishedAt)
	if err != nil {
		return fmt.Errorf("record run %s/%s: %w", row.RunID, row.Source, err)
	}
	return nil
}
