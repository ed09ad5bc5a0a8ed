package reporting

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/storage/memory"
)

func sampleRows() []domain.ChainRow {
	return []domain.ChainRow{
		{
			Date:             domain.MustParseDate("2024-01-01"),
			Chain:            domain.ChainAtom,
			Price:            null.FloatFrom(9.5),
			CircSupply:       null.FloatFrom(300),
			TotalSupply:      null.FloatFrom(1000),
			BondedTokens:     null.FloatFrom(700),
			BondedPercentage: null.FloatFrom(0.7),
			APR:              null.FloatFrom(0.18),
			Inflation:        null.FloatFrom(0.1),
			HasLiquidStaking: true,
			Token:            null.StringFrom("Cosmos"),
		},
		{
			Date:  domain.MustParseDate("2024-01-02"),
			Chain: domain.ChainCurve,
			Price: null.FloatFrom(0.5),
		},
	}
}

func TestWriteChainRowsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChainRowsCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteChainRowsCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	wantHeader := "date,chain,price,circ_supply,total_supply,bonded_tokens,bonded_percentage,apr,inflation,has_liquid_staking,market_cap,volume_24h,reported_total_supply,token"
	if lines[0] != wantHeader {
		t.Errorf("header mismatch:\n got %s\nwant %s", lines[0], wantHeader)
	}
	if lines[1] != "2024-01-01,Atom,9.5,300,1000,700,0.7,0.18,0.1,True,,,,Cosmos" {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if lines[2] != "2024-01-02,Curve,0.5,,,,,,,False,,,," {
		t.Errorf("unexpected second row %q", lines[2])
	}
}

func TestProtocolCSV_WriteThenRead(t *testing.T) {
	table := domain.ProtocolTable{
		Chain:   domain.ChainGMX,
		DateKey: domain.DateAsRowLabel,
		Rows: []domain.ProtocolRow{
			{Date: domain.MustParseDate("2024-01-01"), Price: null.FloatFrom(41.5), BondedPercent: null.FloatFrom(0.55)},
		},
	}

	var buf bytes.Buffer
	if err := WriteProtocolCSV(&buf, table); err != nil {
		t.Fatalf("WriteProtocolCSV failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "timestamp,price,") {
		t.Errorf("expected timestamp as first column, got %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	got, err := ReadProtocolCSV(&buf, domain.ChainGMX)
	if err != nil {
		t.Fatalf("ReadProtocolCSV failed: %v", err)
	}
	if got.DateKey != domain.DateAsRowLabel || len(got.Rows) != 1 {
		t.Fatalf("unexpected table %+v", got)
	}
	if got.Rows[0].BondedPercent.Float64 != 0.55 || got.Rows[0].APR.Valid {
		t.Errorf("unexpected row %+v", got.Rows[0])
	}
}

func TestReadProtocolCSV_LegacyColumns(t *testing.T) {
	data := "index,date,circulating_supply,total_tokens,percentage_bonded,apr,daily_inflation_rate,token\n" +
		"1,2024-01-02 00:00:00,100,25,0.25,,0.01,dYdX\n" +
		"0,2024-01-01 00:00:00,100,,,,,\n"

	got, err := ReadProtocolCSV(strings.NewReader(data), domain.ChainDYDX)
	if err != nil {
		t.Fatalf("ReadProtocolCSV failed: %v", err)
	}
	if got.DateKey != domain.DateAsColumn || len(got.Rows) != 2 {
		t.Fatalf("unexpected table %+v", got)
	}
	r := got.Rows[1]
	if r.Date.String() != "2024-01-02" || r.CircSupply.Float64 != 100 || r.BondedSupply.Float64 != 25 ||
		r.BondedPercent.Float64 != 0.25 || r.Inflation.Float64 != 0.01 || r.Token.String != "dYdX" {
		t.Errorf("unexpected row %+v", r)
	}
	if got.Rows[0].BondedSupply.Valid || got.Rows[0].Token.Valid {
		t.Errorf("expected unset values, got %+v", got.Rows[0])
	}
}

func TestReadProtocolCSV_NoDateColumn(t *testing.T) {
	_, err := ReadProtocolCSV(strings.NewReader("price\n1\n"), domain.ChainGMX)
	if !errors.Is(err, ErrNoDateColumn) {
		t.Errorf("expected ErrNoDateColumn, got %v", err)
	}
}

func TestCachePath(t *testing.T) {
	if got := CachePath(domain.ChainCurve); got != "crv/crv_data.csv" {
		t.Errorf("unexpected cache path %s", got)
	}
}

func TestWriteChainRowsParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChainRowsParquet(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteChainRowsParquet failed: %v", err)
	}

	data := buf.Bytes()
	if len(data) < 8 || string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
		t.Errorf("output is not a parquet file (%d bytes)", len(data))
	}
}

func TestSummarize(t *testing.T) {
	failures := map[domain.Chain]error{domain.ChainGMX: errors.New("missing column")}
	r := Summarize(sampleRows(), failures)

	if r.TotalRows != 2 || len(r.Chains) != 2 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Chains[0].Chain != domain.ChainAtom || r.Chains[0].Complete != 1 {
		t.Errorf("unexpected atom summary %+v", r.Chains[0])
	}
	if r.Chains[1].Complete != 0 {
		t.Errorf("expected incomplete curve row, got %+v", r.Chains[1])
	}

	missing := make(map[string]int)
	for _, c := range r.Columns {
		missing[c.Column] = c.Missing
	}
	if missing["price"] != 0 || missing["apr"] != 1 || missing["market_cap"] != 2 || missing["has_liquid_staking"] != 0 {
		t.Errorf("unexpected missing counts %v", missing)
	}
	if len(r.Failures) != 1 || r.Failures[0].Chain != domain.ChainGMX {
		t.Errorf("unexpected failures %+v", r.Failures)
	}
}

func TestGenerator_Generate(t *testing.T) {
	store := memory.NewChainRowStore()
	ctx := context.Background()
	rows := sampleRows()
	if err := store.ReplaceChain(ctx, domain.ChainAtom, rows[:1]); err != nil {
		t.Fatalf("ReplaceChain failed: %v", err)
	}

	fixed := time.Date(2024, 8, 30, 0, 0, 0, 0, time.UTC)
	r, err := NewGenerator(store).WithClock(func() time.Time { return fixed }).Generate(ctx, "run-1", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !r.GeneratedAt.Equal(fixed) || r.RunID != "run-1" || r.TotalRows != 1 {
		t.Errorf("unexpected report %+v", r)
	}

	md := RenderMarkdown(r)
	for _, want := range []string{"# Token Economics Run Summary", "| Atom | 1 | 1 | 2024-01-01 | 2024-01-01 |", "| token | 0 |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "Failed Chains") {
		t.Error("failures section must be omitted when nothing failed")
	}
}

func TestLogSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := Summarize(sampleRows(), map[domain.Chain]error{domain.ChainGMX: errors.New("boom")})

	LogSummary(zap.New(core), r)

	if n := logs.FilterMessage("chain summary").Len(); n != 2 {
		t.Errorf("expected 2 chain summaries, got %d", n)
	}
	if logs.FilterMessage("run summary").Len() != 1 {
		t.Error("expected run summary")
	}
	if logs.FilterMessage("chain failed").Len() != 1 {
		t.Error("expected failure warning")
	}
}
