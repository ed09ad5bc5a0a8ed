package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/storage"
)

// ChainRowStore is an in-memory implementation of storage.ChainRowStore.
type ChainRowStore struct {
	mu   sync.RWMutex
	data map[domain.Chain][]domain.ChainRow
}

// NewChainRowStore creates a new in-memory chain row store.
func NewChainRowStore() *ChainRowStore {
	return &ChainRowStore{
		data: make(map[domain.Chain][]domain.ChainRow),
	}
}

// Compile-time interface check.
var _ storage.ChainRowStore = (*ChainRowStore)(nil)

// ReplaceChain atomically replaces every stored row of chain.
func (s *ChainRowStore) ReplaceChain(_ context.Context, chain domain.Chain, rows []domain.ChainRow) error {
	if !chain.IsValid() {
		return storage.ErrInvalidInput
	}

	seen := make(map[domain.Date]struct{}, len(rows))
	for _, r := range rows {
		if r.Chain != chain {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.Date]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Date] = struct{}{}
	}

	stored := slices.Clone(rows)
	slices.SortFunc(stored, func(a, b domain.ChainRow) int { return a.Date.Compare(b.Date) })

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[chain] = stored
	return nil
}

// GetByChain retrieves the rows of one chain, ordered by date ASC.
func (s *ChainRowStore) GetByChain(_ context.Context, chain domain.Chain) ([]domain.ChainRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.data[chain]), nil
}

// GetAll retrieves every row, ordered by chain then date.
func (s *ChainRowStore) GetAll(_ context.Context) ([]domain.ChainRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chains := make([]domain.Chain, 0, len(s.data))
	for c := range s.data {
		chains = append(chains, c)
	}
	slices.SortFunc(chains, cmp.Compare[domain.Chain])

	var out []domain.ChainRow
	for _, c := range chains {
		out = append(out, s.data[c]...)
	}
	return out, nil
}
