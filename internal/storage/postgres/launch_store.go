package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/record"
)

// DefaultLaunchTable is used when no table name is configured.
const DefaultLaunchTable = "launches"

// IngestResult summarizes one ingest pass.
type IngestResult struct {
	Read     int
	Cleaned  int
	Skipped  int
	Inserted int
	Updated  int
	Total    int64
}

// LaunchStore upserts cleaned launch and spacecraft records keyed on (name, launch_date).
type LaunchStore struct {
	pool   Pool
	table  string
	logger *zap.Logger
}

// NewLaunchStore constructs a store from an existing pool.
func NewLaunchStore(pool Pool, table string, logger *zap.Logger) (*LaunchStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := checkTable(table, DefaultLaunchTable)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LaunchStore{pool: pool, table: table, logger: logger}, nil
}

// Close releases the underlying pool resources.
func (s *LaunchStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the launches table when missing.
func (s *LaunchStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	name text NOT NULL,
	launch_date text NOT NULL DEFAULT '',
	doc jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (name, launch_date)
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Ingest cleans records and upserts each one. Records without a name cannot be
// keyed and are skipped.
func (s *LaunchStore) Ingest(ctx context.Context, records []record.Record) (IngestResult, error) {
	res := IngestResult{Read: len(records)}
	if s == nil || s.pool == nil {
		return res, fmt.Errorf("launch store is not configured")
	}
	cleaned := CleanRecords(records)
	res.Cleaned = len(cleaned)

	for _, rec := range cleaned {
		name := rec.String("name")
		if name == "" {
			res.Skipped++
			continue
		}
		inserted, err := s.upsert(ctx, name, rec.String("launch_date"), rec)
		if err != nil {
			return res, err
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}

	total, err := s.Count(ctx)
	if err != nil {
		return res, err
	}
	res.Total = total
	s.logger.Info("ingest complete",
		zap.String("table", s.table),
		zap.Int("read", res.Read),
		zap.Int("cleaned", res.Cleaned),
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int64("total", res.Total),
	)
	return res, nil
}

func (s *LaunchStore) upsert(ctx context.Context, name, launchDate string, rec record.Record) (bool, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal %q: %w", name, err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (name, launch_date, doc)
VALUES ($1, $2, $3)
ON CONFLICT (name, launch_date) DO UPDATE
SET doc = EXCLUDED.doc, updated_at = now()
RETURNING (xmax = 0) AS inserted`, s.table)

	var inserted bool
	if err := s.pool.QueryRow(ctx, query, name, launchDate, doc).Scan(&inserted); err != nil {
		return false, fmt.Errorf("upsert %q: %w", name, err)
	}
	return inserted, nil
}

// Count returns the number of rows in the table.
func (s *LaunchStore) Count(ctx context.Context) (int64, error) {
	var total int64
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)
	if err := s.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return total, nil
}
