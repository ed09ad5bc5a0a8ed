package storage

import (
	"context"

	"tokenomics-lab/internal/domain"
)

// ChainRowStore provides access to the consolidated chain_metrics table.
type ChainRowStore interface {
	// ReplaceChain atomically replaces every stored row of chain with rows.
	// Returns ErrInvalidInput if a row belongs to another chain or repeats a date.
	ReplaceChain(ctx context.Context, chain domain.Chain, rows []domain.ChainRow) error

	// GetByChain retrieves the rows of one chain, ordered by date ASC.
	GetByChain(ctx context.Context, chain domain.Chain) ([]domain.ChainRow, error)

	// GetAll retrieves every row, ordered by chain then date.
	GetAll(ctx context.Context) ([]domain.ChainRow, error)
}

// BondedTokenSource provides daily bonded-token totals from a validator warehouse.
type BondedTokenSource interface {
	// DailyBondedTokens returns one row per day from since through today,
	// summing the tokens of bonded validators, newest first.
	// Returns ErrInvalidInput if database or table is not a plain identifier.
	DailyBondedTokens(ctx context.Context, database, table string, since domain.Date) ([]domain.BondedDay, error)
}
