package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/storage"
)

// chainMetricsColumns is the column order used for COPY and SELECT.
var chainMetricsColumns = []string{
	"chain", "date", "price", "circ_supply", "total_supply", "bonded_tokens",
	"bonded_percentage", "apr", "inflation", "has_liquid_staking",
	"market_cap", "volume_24h", "reported_total_supply", "token",
}

const selectChainMetrics = `
	SELECT chain, date, price, circ_supply, total_supply, bonded_tokens,
	       bonded_percentage, apr, inflation, has_liquid_staking,
	       market_cap, volume_24h, reported_total_supply, token
	FROM chain_metrics
`

// ChainRowStore implements storage.ChainRowStore using PostgreSQL.
type ChainRowStore struct {
	pool *Pool
}

// NewChainRowStore creates a new ChainRowStore.
func NewChainRowStore(pool *Pool) *ChainRowStore {
	return &ChainRowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ChainRowStore = (*ChainRowStore)(nil)

// ReplaceChain deletes the stored rows of chain and copies rows in, in one transaction.
func (s *ChainRowStore) ReplaceChain(ctx context.Context, chain domain.Chain, rows []domain.ChainRow) error {
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chain_metrics WHERE chain = $1`, string(chain)); err != nil {
		return fmt.Errorf("delete chain metrics: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"chain_metrics"}, chainMetricsColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				string(r.Chain), r.Date.Time(), r.Price.Ptr(), r.CircSupply.Ptr(), r.TotalSupply.Ptr(),
				r.BondedTokens.Ptr(), r.BondedPercentage.Ptr(), r.APR.Ptr(), r.Inflation.Ptr(),
				r.HasLiquidStaking, r.MarketCap.Ptr(), r.Volume24h.Ptr(), r.ReportedTotalSupply.Ptr(),
				r.Token.Ptr(),
			}, nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy chain metrics: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByChain retrieves the rows of one chain, ordered by date ASC.
func (s *ChainRowStore) GetByChain(ctx context.Context, chain domain.Chain) ([]domain.ChainRow, error) {
	rows, err := s.pool.Query(ctx, selectChainMetrics+` WHERE chain = $1 ORDER BY date ASC`, string(chain))
	if err != nil {
		return nil, fmt.Errorf("get chain metrics by chain: %w", err)
	}
	defer rows.Close()

	return scanChainRows(rows)
}

// GetAll retrieves every row, ordered by chain then date.
func (s *ChainRowStore) GetAll(ctx context.Context) ([]domain.ChainRow, error) {
	rows, err := s.pool.Query(ctx, selectChainMetrics+` ORDER BY chain COLLATE "C" ASC, date ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all chain metrics: %w", err)
	}
	defer rows.Close()

	return scanChainRows(rows)
}

func scanChainRows(rows pgx.Rows) ([]domain.ChainRow, error) {
	var out []domain.ChainRow
	for rows.Next() {
		var (
			r     domain.ChainRow
			chain string
			date  time.Time
		)
		err := rows.Scan(
			&chain, &date, &r.Price, &r.CircSupply, &r.TotalSupply, &r.BondedTokens,
			&r.BondedPercentage, &r.APR, &r.Inflation, &r.HasLiquidStaking,
			&r.MarketCap, &r.Volume24h, &r.ReportedTotalSupply, &r.Token,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chain metrics: %w", err)
		}
		r.Chain = domain.Chain(chain)
		r.Date = domain.DateOf(date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain metrics: %w", err)
	}
	return out, nil
}
