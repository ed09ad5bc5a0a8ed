package memory

import (
	"context"
	"slices"
	"sync"

	"tokenomics-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*storage.RunRecord
	last *storage.RunRecord
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*storage.RunRecord),
	}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Record saves a run. Returns ErrDuplicateKey if the run id exists.
func (s *RunStore) Record(_ context.Context, run *storage.RunRecord) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := *run
	stored.FailedChains = slices.Clone(run.FailedChains)
	s.runs[run.RunID] = &stored
	if s.last == nil || !stored.FinishedAt.Before(s.last.FinishedAt) {
		s.last = &stored
	}
	return nil
}

// Last returns the most recently finished run.
func (s *RunStore) Last(_ context.Context) (*storage.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil, storage.ErrNotFound
	}

	out := *s.last
	out.FailedChains = slices.Clone(s.last.FailedChains)
	return &out, nil
}
