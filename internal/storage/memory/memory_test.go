package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/storage"
)

func chainRow(chain domain.Chain, date string, price float64) domain.ChainRow {
	return domain.ChainRow{Date: domain.MustParseDate(date), Chain: chain, Price: null.FloatFrom(price)}
}

func TestChainRowStore_ReplaceAndGet(t *testing.T) {
	store := NewChainRowStore()
	ctx := context.Background()

	rows := []domain.ChainRow{
		chainRow(domain.ChainGMX, "2024-01-02", 2),
		chainRow(domain.ChainGMX, "2024-01-01", 1),
	}
	if err := store.ReplaceChain(ctx, domain.ChainGMX, rows); err != nil {
		t.Fatalf("ReplaceChain failed: %v", err)
	}

	got, err := store.GetByChain(ctx, domain.ChainGMX)
	if err != nil {
		t.Fatalf("GetByChain failed: %v", err)
	}
	if len(got) != 2 || got[0].Date.String() != "2024-01-01" {
		t.Errorf("expected 2 rows ordered by date, got %+v", got)
	}

	// Replacing drops the previous rows.
	if err := store.ReplaceChain(ctx, domain.ChainGMX, rows[:1]); err != nil {
		t.Fatalf("ReplaceChain failed: %v", err)
	}
	got, _ = store.GetByChain(ctx, domain.ChainGMX)
	if len(got) != 1 {
		t.Errorf("expected 1 row after replace, got %d", len(got))
	}
}

func TestChainRowStore_Validation(t *testing.T) {
	store := NewChainRowStore()
	ctx := context.Background()

	err := store.ReplaceChain(ctx, domain.ChainGMX, []domain.ChainRow{chainRow(domain.ChainCurve, "2024-01-01", 1)})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	dup := []domain.ChainRow{chainRow(domain.ChainGMX, "2024-01-01", 1), chainRow(domain.ChainGMX, "2024-01-01", 2)}
	if err := store.ReplaceChain(ctx, domain.ChainGMX, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if err := store.ReplaceChain(ctx, domain.Chain("Solana"), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown chain, got %v", err)
	}
}

func TestChainRowStore_GetAllOrdered(t *testing.T) {
	store := NewChainRowStore()
	ctx := context.Background()

	_ = store.ReplaceChain(ctx, domain.ChainOsmosis, []domain.ChainRow{chainRow(domain.ChainOsmosis, "2024-01-01", 1)})
	_ = store.ReplaceChain(ctx, domain.ChainAtom, []domain.ChainRow{chainRow(domain.ChainAtom, "2024-01-03", 1)})

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 2 || got[0].Chain != domain.ChainAtom {
		t.Errorf("expected Atom first, got %+v", got)
	}
}

func TestChainRowStore_ReturnsCopies(t *testing.T) {
	store := NewChainRowStore()
	ctx := context.Background()

	_ = store.ReplaceChain(ctx, domain.ChainGMX, []domain.ChainRow{chainRow(domain.ChainGMX, "2024-01-01", 1)})
	got, _ := store.GetByChain(ctx, domain.ChainGMX)
	got[0].Price = null.FloatFrom(99)

	again, _ := store.GetByChain(ctx, domain.ChainGMX)
	if again[0].Price.Float64 != 1 {
		t.Error("store data modified through returned slice")
	}
}

func TestBondedTokenStore(t *testing.T) {
	store := NewBondedTokenStore()
	ctx := context.Background()

	store.Put("dydx_mainnet", "dydx_validators", []domain.BondedDay{
		{Date: domain.MustParseDate("2022-12-31"), Tokens: null.FloatFrom(1)},
		{Date: domain.MustParseDate("2023-01-01"), Tokens: null.FloatFrom(2)},
		{Date: domain.MustParseDate("2023-01-02"), Tokens: null.FloatFrom(3)},
	})

	got, err := store.DailyBondedTokens(ctx, "dydx_mainnet", "dydx_validators", domain.MustParseDate("2023-01-01"))
	if err != nil {
		t.Fatalf("DailyBondedTokens failed: %v", err)
	}
	if len(got) != 2 || got[0].Date.String() != "2023-01-02" {
		t.Errorf("expected 2 days newest first, got %+v", got)
	}

	if _, err := store.DailyBondedTokens(ctx, "dydx_mainnet", "other", domain.MustParseDate("2023-01-01")); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunStore(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if _, err := store.Last(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	base := time.Date(2024, 8, 30, 12, 0, 0, 0, time.UTC)
	first := &storage.RunRecord{RunID: "a", FinishedAt: base, Status: "success", Rows: 10}
	second := &storage.RunRecord{RunID: "b", FinishedAt: base.Add(time.Hour), Status: "partial", FailedChains: []string{"GMX"}}

	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, first); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	last, err := store.Last(ctx)
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if last.RunID != "b" || len(last.FailedChains) != 1 {
		t.Errorf("expected run b, got %+v", last)
	}
}
