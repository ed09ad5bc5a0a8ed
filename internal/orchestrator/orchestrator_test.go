package orchestrator_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/fixtures"
	"tokenomics-lab/internal/marketdata"
	"tokenomics-lab/internal/observability"
	"tokenomics-lab/internal/orchestrator"
	"tokenomics-lab/internal/reporting"
)

var testMetrics = observability.NewMetrics("orchestrator_test", prometheus.NewRegistry())

func fixtureOptions(t *testing.T) orchestrator.Options {
	t.Helper()
	quotes, err := fixtures.NewQuoteSource()
	require.NoError(t, err)
	return orchestrator.Options{
		Sources: orchestrator.Sources{
			Quotes: quotes,
			Bonds:  fixtures.BondStore(),
			Files:  fixtures.Files(),
		},
		Settings: orchestrator.DefaultSettings(),
		Metrics:  testMetrics,
	}
}

func countByChain(rows []domain.ChainRow) map[domain.Chain]int {
	out := make(map[domain.Chain]int)
	for _, r := range rows {
		out[r.Chain]++
	}
	return out
}

func renderCSV(t *testing.T, rows []domain.ChainRow) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, reporting.WriteChainRowsCSV(&buf, rows))
	return buf.String()
}

func TestOrchestrator_Run_Fixtures(t *testing.T) {
	result, err := orchestrator.New(fixtureOptions(t)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	assert.False(t, result.Failed())
	assert.Equal(t, observability.StatusSuccess, result.Status())
	assert.Len(t, result.Tables, 6)
	assert.Equal(t, fixtures.ExpectedRows, countByChain(result.Rows))

	total := 0
	for _, table := range result.Tables {
		total += len(table.Rows)
	}
	assert.Equal(t, total, len(result.Rows))

	// byte-wise chain order puts the lowercase-led dYdX last
	var order []domain.Chain
	for _, r := range result.Rows {
		if len(order) == 0 || order[len(order)-1] != r.Chain {
			order = append(order, r.Chain)
		}
	}
	assert.Equal(t, []domain.Chain{
		domain.ChainAtom, domain.ChainBalancer, domain.ChainCurve,
		domain.ChainGMX, domain.ChainOsmosis, domain.ChainDYDX,
	}, order)

	for i := 1; i < len(result.Rows); i++ {
		prev, cur := result.Rows[i-1], result.Rows[i]
		if prev.Chain == cur.Chain {
			assert.True(t, prev.Date.Before(cur.Date), "dates not increasing at row %d", i)
		}
	}
}

func TestOrchestrator_Run_SupplyIdentity(t *testing.T) {
	result, err := orchestrator.New(fixtureOptions(t)).Run(context.Background())
	require.NoError(t, err)

	for _, r := range result.Rows {
		if r.CircSupply.Valid && r.BondedTokens.Valid && r.TotalSupply.Valid {
			assert.InDelta(t, r.TotalSupply.Float64, r.CircSupply.Float64+r.BondedTokens.Float64, 1e-6,
				"%s %s", r.Chain, r.Date)
		}
		if r.BondedPercentage.Valid {
			assert.GreaterOrEqual(t, r.BondedPercentage.Float64, 0.0)
			assert.LessOrEqual(t, r.BondedPercentage.Float64, 1.0)
		}
	}
}

func TestOrchestrator_Run_DYDXCutoff(t *testing.T) {
	opts := fixtureOptions(t)
	opts.Chains = []domain.Chain{domain.ChainDYDX}
	result, err := orchestrator.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)

	cutoff := orchestrator.DefaultSettings().DYDXIdentity.Cutoff
	for _, r := range result.Rows {
		want := "dYdX (Native)"
		if r.Date.Before(cutoff) {
			want = "dYdX (ethDYDX)"
		}
		assert.Equal(t, want, r.Token.ValueOrZero(), r.Date.String())
		assert.True(t, r.HasLiquidStaking)
		assert.True(t, r.BondedTokens.Valid, r.Date.String())
	}
}

func TestOrchestrator_Run_WorkersDoNotChangeOutput(t *testing.T) {
	serial, err := orchestrator.New(fixtureOptions(t)).Run(context.Background())
	require.NoError(t, err)

	opts := fixtureOptions(t)
	opts.MaxWorkers = 6
	parallel, err := orchestrator.New(opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, renderCSV(t, serial.Rows), renderCSV(t, parallel.Rows))
}

func TestOrchestrator_Run_IsolatesChainFailures(t *testing.T) {
	opts := fixtureOptions(t)
	opts.Sources.Bonds = nil
	opts.MaxWorkers = 3

	result, err := orchestrator.New(opts).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[domain.ChainDYDX], orchestrator.ErrMissingSource)
	assert.Equal(t, observability.StatusPartial, result.Status())
	assert.Len(t, result.Tables, 5)
	assert.Zero(t, countByChain(result.Rows)[domain.ChainDYDX])
	assert.Equal(t, 5, countByChain(result.Rows)[domain.ChainOsmosis])
}

type failingQuotes struct{ err error }

func (f failingQuotes) HistoricalQuotes(context.Context, []string, domain.Window) (*marketdata.HistoricalQuotesResponse, error) {
	return nil, f.err
}

func TestOrchestrator_Run_QuoteTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	opts := fixtureOptions(t)
	opts.Sources.Quotes = failingQuotes{err: boom}

	result, err := orchestrator.New(opts).Run(context.Background())
	require.NoError(t, err)

	for _, chain := range []domain.Chain{domain.ChainOsmosis, domain.ChainAtom, domain.ChainDYDX} {
		assert.ErrorIs(t, result.Errors[chain], boom, chain.String())
	}
	assert.Len(t, result.Tables, 3)
}

type emptyQuotes struct{}

func (emptyQuotes) HistoricalQuotes(context.Context, []string, domain.Window) (*marketdata.HistoricalQuotesResponse, error) {
	return &marketdata.HistoricalQuotesResponse{}, nil
}

func TestOrchestrator_Run_EmptyQuotesIsNotAFailure(t *testing.T) {
	opts := fixtureOptions(t)
	opts.Sources.Quotes = emptyQuotes{}
	opts.Chains = []domain.Chain{domain.ChainOsmosis, domain.ChainAtom, domain.ChainCurve}

	result, err := orchestrator.New(opts).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, observability.StatusSuccess, result.Status())
	require.Len(t, result.Tables, 3)

	// without price and supply no osmosis or atom day is complete
	counts := countByChain(result.Rows)
	assert.Zero(t, counts[domain.ChainOsmosis])
	assert.Zero(t, counts[domain.ChainAtom])
	assert.Equal(t, fixtures.ExpectedRows[domain.ChainCurve], counts[domain.ChainCurve])
}

func TestOrchestrator_Run_MissingFiles(t *testing.T) {
	opts := fixtureOptions(t)
	opts.Sources.Files = fstest.MapFS{}
	opts.Chains = []domain.Chain{domain.ChainCurve}

	result, err := orchestrator.New(opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, observability.StatusFailed, result.Status())
	assert.Error(t, result.Errors[domain.ChainCurve])
	assert.Empty(t, result.Rows)
}

func TestOrchestrator_Run_ReusesCache(t *testing.T) {
	dir := t.TempDir()

	opts := fixtureOptions(t)
	opts.CacheDir = dir
	first, err := orchestrator.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, first.Errors)

	// no inputs at all: every chain must come from the cache
	cached := orchestrator.Options{
		Sources:    orchestrator.Sources{Files: fstest.MapFS{}},
		Settings:   orchestrator.DefaultSettings(),
		CacheDir:   dir,
		ReuseCache: true,
		Metrics:    testMetrics,
	}
	second, err := orchestrator.New(cached).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, second.Errors)

	assert.Equal(t, renderCSV(t, first.Rows), renderCSV(t, second.Rows))
	for i := range first.Tables {
		assert.Equal(t, first.Tables[i].DateKey, second.Tables[i].DateKey, first.Tables[i].Chain.String())
	}
}

func TestOrchestrator_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orchestrator.New(fixtureOptions(t)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultSettings(t *testing.T) {
	s := orchestrator.DefaultSettings()
	assert.Equal(t, "12220", s.OsmosisAsset)
	assert.Equal(t, "3794", s.AtomAsset)
	assert.Equal(t, "11156", s.DYDXIdentity.LegacyID)
	assert.Equal(t, "28324", s.DYDXIdentity.SuccessorID)
	assert.Equal(t, "2023-12-12", s.DYDXIdentity.Cutoff.String())
	assert.Equal(t, "daily", s.Window.Interval)
}
