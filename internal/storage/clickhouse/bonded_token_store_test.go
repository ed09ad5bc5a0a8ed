package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/storage"
)

func insertValidators(t *testing.T, conn *Conn, rows [][]any) {
	t.Helper()

	batch, err := conn.PrepareBatch(context.Background(), `
		INSERT INTO dydx_mainnet.dydx_validators (ingestion_timestamp, operator_address, status, tokens)
	`)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, batch.Append(r...))
	}
	require.NoError(t, batch.Send())
}

func TestBondedTokenStore_DailyBondedTokens(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)
	longAgo := time.Date(2022, 12, 31, 10, 0, 0, 0, time.UTC)

	insertValidators(t, conn, [][]any{
		{yesterday.Add(2 * time.Hour), "val1", "BOND_STATUS_BONDED", "1000000000000000000"},
		{yesterday.Add(3 * time.Hour), "val2", "BOND_STATUS_BONDED", "2500000000000000000"},
		{yesterday.Add(4 * time.Hour), "val3", "BOND_STATUS_UNBONDING", "9000000000000000000"},
		{today.Add(time.Hour), "val1", "BOND_STATUS_BONDED", "4000000000000000000"},
		{longAgo, "val1", "BOND_STATUS_BONDED", "7000000000000000000"},
	})

	store := NewBondedTokenStore(conn)
	got, err := store.DailyBondedTokens(context.Background(), "dydx_mainnet", "dydx_validators", domain.MustParseDate("2023-01-01"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.DateOf(today), got[0].Date, "newest day first")
	assert.InDelta(t, 4.0, got[0].Tokens.Float64, 1e-9)
	assert.Equal(t, domain.DateOf(yesterday), got[1].Date)
	assert.InDelta(t, 3.5, got[1].Tokens.Float64, 1e-9)
}

func TestBondedTokenStore_RejectsIdentifiers(t *testing.T) {
	store := NewBondedTokenStore(nil)

	_, err := store.DailyBondedTokens(context.Background(), "dydx_mainnet", "validators; DROP TABLE x", domain.MustParseDate("2023-01-01"))
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.DailyBondedTokens(context.Background(), "1dydx", "dydx_validators", domain.MustParseDate("2023-01-01"))
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestBondedTokenStore_EmptyDatabaseUsesDSN(t *testing.T) {
	// the DSN database is validated like an explicit one
	store := NewBondedTokenStore(&Conn{database: "dydx-mainnet"})

	_, err := store.DailyBondedTokens(context.Background(), "", "dydx_validators", domain.MustParseDate("2023-01-01"))
	require.ErrorIs(t, err, storage.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"dydx-mainnet"`)
}
