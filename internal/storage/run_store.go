package storage

import (
	"context"
	"time"
)

// RunRecord summarizes one pipeline run.
type RunRecord struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string // success, partial, failed
	Rows         int
	FailedChains []string
	DataVersion  string // digest of the exported rows
}

// RunStore keeps the history of pipeline runs.
type RunStore interface {
	// Record saves a run. Returns ErrDuplicateKey if the run id exists.
	Record(ctx context.Context, run *RunRecord) error

	// Last returns the most recently finished run.
	// Returns ErrNotFound if no run has been recorded yet.
	Last(ctx context.Context) (*RunRecord, error)
}
