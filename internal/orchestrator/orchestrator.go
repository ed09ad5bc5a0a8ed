// Package orchestrator builds the per-protocol tables and consolidates them.
// Each chain runs fetch → normalize → merge on its own task; the results are
// then standardized into one table sorted by (chain, date).
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"tokenomics-lab/internal/config"
	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/marketdata"
	"tokenomics-lab/internal/normalization"
	"tokenomics-lab/internal/observability"
	"tokenomics-lab/internal/reporting"
	"tokenomics-lab/internal/standardize"
	"tokenomics-lab/internal/storage"
)

var (
	// ErrNoChains is returned when a run selects no chains.
	ErrNoChains = errors.New("no chains selected")
	// ErrMissingSource is returned when a chain needs a source that was not provided.
	ErrMissingSource = errors.New("source not configured")
	// ErrIncomplete is reported for a chain whose task ended without a result.
	ErrIncomplete = errors.New("chain build did not complete")
)

// QuoteSource serves historical quotes.
type QuoteSource interface {
	HistoricalQuotes(ctx context.Context, ids []string, window domain.Window) (*marketdata.HistoricalQuotesResponse, error)
}

// Sources are the collaborators the chain builders read from.
type Sources struct {
	Quotes QuoteSource
	Bonds  storage.BondedTokenSource
	Files  fs.FS // data directory with the CSV exports and the dYdX blob
}

// Settings are the fixed parameters of a run.
type Settings struct {
	Window       domain.Window
	OsmosisAsset string
	AtomAsset    string
	DYDXIdentity normalization.IdentitySwitch
	BondDatabase string
	BondTable    string
	BondedSince  domain.Date
}

// DefaultSettings returns the settings of a production run.
func DefaultSettings() Settings {
	return Settings{
		Window:       config.DefaultWindow(),
		OsmosisAsset: config.AssetOsmosis,
		AtomAsset:    config.AssetAtom,
		DYDXIdentity: normalization.IdentitySwitch{
			LegacyID:    config.AssetDYDXEth,
			SuccessorID: config.AssetDYDXNative,
			Cutoff:      config.DYDXCutoff,
		},
		BondDatabase: config.DYDXValidatorDatabase,
		BondTable:    config.DYDXValidatorTable,
		BondedSince:  config.BondedSince,
	}
}

// Options for creating Orchestrator.
type Options struct {
	Sources  Sources
	Settings Settings

	// Chains to build, in any order. Empty means all chains.
	Chains []domain.Chain

	// CacheDir receives one CSV per protocol table when set.
	CacheDir string
	// ReuseCache loads a chain from CacheDir instead of rebuilding it when
	// its cache file exists.
	ReuseCache bool

	MaxWorkers int // concurrent chain builds, at least 1

	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Orchestrator coordinates the chain builds.
type Orchestrator struct {
	sources    Sources
	settings   Settings
	chains     []domain.Chain
	cacheDir   string
	reuseCache bool
	maxWorkers int
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// New creates a new orchestrator.
func New(opts Options) *Orchestrator {
	chains := opts.Chains
	if len(chains) == 0 {
		chains = domain.AllChains()
	}
	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	return &Orchestrator{
		sources:    opts.Sources,
		settings:   opts.Settings,
		chains:     chains,
		cacheDir:   opts.CacheDir,
		reuseCache: opts.ReuseCache,
		maxWorkers: workers,
		logger:     logger,
		metrics:    metrics,
	}
}

// RunResult contains the outcome of a run.
type RunResult struct {
	Tables []domain.ProtocolTable // successful chains, in selection order
	Rows   []domain.ChainRow      // consolidated and sorted by (chain, date)
	Errors map[domain.Chain]error // failed chains
}

// Failed reports whether any chain failed.
func (r *RunResult) Failed() bool {
	return len(r.Errors) > 0
}

// Status returns the run status label used by metrics and the run store.
func (r *RunResult) Status() string {
	switch {
	case len(r.Errors) == 0:
		return observability.StatusSuccess
	case len(r.Tables) == 0:
		return observability.StatusFailed
	default:
		return observability.StatusPartial
	}
}

// Run builds every selected chain and consolidates the successful ones.
// A failing chain does not stop the others; its error is reported in
// RunResult.Errors. The returned error is reserved for run-level failures.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if len(o.chains) == 0 {
		return nil, ErrNoChains
	}

	tables := make([]*domain.ProtocolTable, len(o.chains))
	errs := make([]error, len(o.chains))

	pool := pond.NewPool(o.maxWorkers)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, chain := range o.chains {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				errs[i] = err
				return
			}
			table, err := o.buildChain(groupCtx, chain)
			if err != nil {
				errs[i] = err
				return
			}
			tables[i] = &table
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		o.logger.Warn("chain group finished with error", zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run chains: %w", err)
	}

	result := &RunResult{Errors: make(map[domain.Chain]error)}
	for i, chain := range o.chains {
		if errs[i] == nil && tables[i] == nil {
			errs[i] = fmt.Errorf("build %s: %w", chain, ErrIncomplete)
		}
		if errs[i] != nil {
			result.Errors[chain] = errs[i]
			o.logger.Error("chain build failed", zap.String("chain", chain.String()), zap.Error(errs[i]))
			continue
		}
		result.Tables = append(result.Tables, *tables[i])
	}
	result.Rows = standardize.Consolidate(result.Tables)

	o.logger.Info("chains consolidated",
		zap.Int("chains", len(result.Tables)),
		zap.Int("failed", len(result.Errors)),
		zap.Int("rows", len(result.Rows)),
	)
	return result, nil
}

// buildChain produces one protocol table, from the cache when allowed.
func (o *Orchestrator) buildChain(ctx context.Context, chain domain.Chain) (domain.ProtocolTable, error) {
	logger := o.logger.With(zap.String("chain", chain.String()))
	start := time.Now()

	if o.reuseCache && o.cacheDir != "" {
		table, err := o.readCache(chain)
		switch {
		case err == nil:
			logger.Info("reused cached table", zap.Int("rows", len(table.Rows)))
			o.metrics.RecordChainBuild(chain.String(), observability.StatusCached, time.Since(start).Seconds(), len(table.Rows))
			return table, nil
		case !errors.Is(err, fs.ErrNotExist):
			return domain.ProtocolTable{}, fmt.Errorf("read %s cache: %w", chain, err)
		}
	}

	table, err := o.build(ctx, chain)
	if err != nil {
		o.metrics.RecordChainBuild(chain.String(), observability.StatusFailed, time.Since(start).Seconds(), 0)
		return domain.ProtocolTable{}, err
	}

	if o.cacheDir != "" {
		if err := o.writeCache(table); err != nil {
			return domain.ProtocolTable{}, fmt.Errorf("write %s cache: %w", chain, err)
		}
	}

	o.metrics.RecordChainBuild(chain.String(), observability.StatusSuccess, time.Since(start).Seconds(), len(table.Rows))
	logger.Info("chain built", zap.Int("rows", len(table.Rows)), zap.Duration("took", time.Since(start)))
	return table, nil
}

func (o *Orchestrator) build(ctx context.Context, chain domain.Chain) (domain.ProtocolTable, error) {
	if o.sources.Files == nil {
		return domain.ProtocolTable{}, fmt.Errorf("read %s inputs: %w", chain, ErrMissingSource)
	}
	switch chain {
	case domain.ChainOsmosis:
		return o.buildOsmosis(ctx)
	case domain.ChainAtom:
		return o.buildAtom(ctx)
	case domain.ChainDYDX:
		return o.buildDYDX(ctx)
	case domain.ChainCurve:
		return o.buildCurve()
	case domain.ChainGMX:
		return o.buildGMX()
	case domain.ChainBalancer:
		return o.buildBalancer()
	default:
		return domain.ProtocolTable{}, fmt.Errorf("build chain %q: %w", chain, domain.ErrUnknownChain)
	}
}

func (o *Orchestrator) cachePath(chain domain.Chain) string {
	return filepath.Join(o.cacheDir, filepath.FromSlash(reporting.CachePath(chain)))
}

func (o *Orchestrator) readCache(chain domain.Chain) (domain.ProtocolTable, error) {
	f, err := os.Open(o.cachePath(chain))
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	defer f.Close()
	return reporting.ReadProtocolCSV(f, chain)
}

func (o *Orchestrator) writeCache(t domain.ProtocolTable) error {
	path := o.cachePath(t.Chain)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := reporting.WriteProtocolCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
