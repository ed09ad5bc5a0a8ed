package memory

import (
	"context"
	"slices"
	"sync"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/storage"
)

// BondedTokenStore is an in-memory implementation of storage.BondedTokenSource.
// Days are kept per database.table.
type BondedTokenStore struct {
	mu   sync.RWMutex
	data map[string][]domain.BondedDay
}

// NewBondedTokenStore creates a new in-memory bonded token store.
func NewBondedTokenStore() *BondedTokenStore {
	return &BondedTokenStore{
		data: make(map[string][]domain.BondedDay),
	}
}

// Compile-time interface check.
var _ storage.BondedTokenSource = (*BondedTokenStore)(nil)

// Put stores the days of database.table, replacing earlier ones.
func (s *BondedTokenStore) Put(database, table string, days []domain.BondedDay) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[database+"."+table] = slices.Clone(days)
}

// DailyBondedTokens returns the stored days on or after since, newest first.
func (s *BondedTokenStore) DailyBondedTokens(_ context.Context, database, table string, since domain.Date) ([]domain.BondedDay, error) {
	if database == "" || table == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	days, ok := s.data[database+"."+table]
	if !ok {
		return nil, storage.ErrNotFound
	}

	var out []domain.BondedDay
	for _, d := range days {
		if !d.Date.Before(since) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b domain.BondedDay) int { return b.Date.Compare(a.Date) })
	return out, nil
}
