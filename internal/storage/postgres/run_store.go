package postgres

import (
	"context"
	"fmt"

	"tokenomics-lab/internal/storage"
)

// RunStore is a PostgreSQL implementation of storage.RunStore backed by
// the pipeline_runs table.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new PostgreSQL run store.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Record saves a run. Returns ErrDuplicateKey if the run id exists.
func (s *RunStore) Record(ctx context.Context, run *storage.RunRecord) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	failed := run.FailedChains
	if failed == nil {
		failed = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO pipeline_runs (run_id, started_at, finished_at, status, row_count, failed_chains, data_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.RunID, run.StartedAt, run.FinishedAt, run.Status, run.Rows, failed, run.DataVersion)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

// Last returns the most recently finished run.
func (s *RunStore) Last(ctx context.Context) (*storage.RunRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, started_at, finished_at, status, row_count, failed_chains, data_version
		FROM pipeline_runs
		ORDER BY finished_at DESC
		LIMIT 1
	`)

	var run storage.RunRecord
	err := row.Scan(&run.RunID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Rows, &run.FailedChains, &run.DataVersion)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get last pipeline run: %w", err)
	}
	return &run, nil
}
