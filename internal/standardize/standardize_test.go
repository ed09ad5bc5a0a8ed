package standardize

import (
	"slices"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
)

func TestSynonymTargetsAreOutputColumns(t *testing.T) {
	for from, to := range Synonyms {
		if !slices.Contains(domain.OutputColumns, to) {
			t.Errorf("synonym %s -> %s: target is not an output column", from, to)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"staking_apr", "apr"},
		{"percentage_bonded", "bonded_percentage"},
		{"timestamp", "date"},
		{"bonded_supply", "bonded_tokens"},
		{"total_supply", "total_supply"},
		{"reported_total_supply", "reported_total_supply"},
		{"apr", "apr"},
		{"something_else", "something_else"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToChainRow(t *testing.T) {
	r := domain.ProtocolRow{
		Date:          domain.MustParseDate("2024-01-01"),
		BondedSupply:  null.FloatFrom(10),
		BondedPercent: null.FloatFrom(0.1),
		Token:         null.StringFrom("Osmosis"),
	}

	got := ToChainRow(domain.ChainOsmosis, r)
	if got.BondedTokens.Float64 != 10 || got.BondedPercentage.Float64 != 0.1 {
		t.Errorf("unexpected mapping %+v", got)
	}
	if !got.HasLiquidStaking {
		t.Error("expected Osmosis to have liquid staking")
	}
	if ToChainRow(domain.ChainCurve, r).HasLiquidStaking {
		t.Error("expected Curve without liquid staking")
	}
	if got.Price.Valid {
		t.Error("expected unset price to stay unset")
	}
}

func rowsFor(dates ...string) []domain.ProtocolRow {
	rows := make([]domain.ProtocolRow, len(dates))
	for i, d := range dates {
		rows[i] = domain.ProtocolRow{Date: domain.MustParseDate(d)}
	}
	return rows
}

func TestConsolidate_CountAndOrder(t *testing.T) {
	tables := []domain.ProtocolTable{
		{Chain: domain.ChainOsmosis, Rows: rowsFor("2024-01-02", "2024-01-03")},
		{Chain: domain.ChainDYDX, Rows: rowsFor("2024-01-01")},
		{Chain: domain.ChainCurve, DateKey: domain.DateAsRowLabel, Rows: rowsFor("2024-01-05")},
		{Chain: domain.ChainAtom, Rows: rowsFor("2024-01-01", "2024-01-02")},
		{Chain: domain.ChainGMX, DateKey: domain.DateAsRowLabel, Rows: rowsFor("2024-01-04")},
		{Chain: domain.ChainBalancer, DateKey: domain.DateAsRowLabel, Rows: rowsFor("2024-01-01", "2024-01-03")},
	}

	got := Consolidate(tables)

	if len(got) != 9 {
		t.Fatalf("expected 9 rows, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Chain > cur.Chain || (prev.Chain == cur.Chain && !prev.Date.Before(cur.Date)) {
			t.Errorf("rows %d and %d out of order: %s %s / %s %s", i-1, i, prev.Chain, prev.Date, cur.Chain, cur.Date)
		}
	}
	if got[0].Chain != domain.ChainAtom || got[len(got)-1].Chain != domain.ChainDYDX {
		t.Errorf("expected byte-wise chain order, got %s first and %s last", got[0].Chain, got[len(got)-1].Chain)
	}
}

func TestConsolidate_DateLayoutIndependent(t *testing.T) {
	rows := []domain.ProtocolRow{
		{Date: domain.DateOf(time.Date(2024, 1, 2, 23, 59, 59, 0, time.UTC)), Price: null.FloatFrom(2)},
		{Date: domain.MustParseDate("2024-01-01"), Price: null.FloatFrom(1)},
	}

	asColumn := Consolidate([]domain.ProtocolTable{{Chain: domain.ChainGMX, DateKey: domain.DateAsColumn, Rows: rows}})
	asLabel := Consolidate([]domain.ProtocolTable{{Chain: domain.ChainGMX, DateKey: domain.DateAsRowLabel, Rows: rows}})

	if len(asColumn) != 2 || len(asLabel) != 2 {
		t.Fatalf("unexpected row counts %d %d", len(asColumn), len(asLabel))
	}
	for i := range asColumn {
		if !asColumn[i].Date.Equal(asLabel[i].Date) || asColumn[i].Price != asLabel[i].Price {
			t.Errorf("row %d differs: %+v vs %+v", i, asColumn[i], asLabel[i])
		}
	}
	if asColumn[0].Date.String() != "2024-01-01" || asColumn[1].Date.String() != "2024-01-02" {
		t.Errorf("unexpected dates %s %s", asColumn[0].Date, asColumn[1].Date)
	}
}
