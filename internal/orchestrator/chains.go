package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/ingestion"
	"tokenomics-lab/internal/marketdata"
	"tokenomics-lab/internal/merge"
	"tokenomics-lab/internal/normalization"
)

func (o *Orchestrator) quotes(ctx context.Context, ids ...string) (*marketdata.HistoricalQuotesResponse, error) {
	if o.sources.Quotes == nil {
		return nil, fmt.Errorf("fetch quotes: %w", ErrMissingSource)
	}
	resp, err := o.sources.Quotes.HistoricalQuotes(ctx, ids, o.settings.Window)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes %v: %w", ids, err)
	}
	if resp.Empty() {
		o.logger.Warn("quote payload is empty", zap.Strings("ids", ids))
	}
	return resp, nil
}

func (o *Orchestrator) bonds(ctx context.Context) ([]domain.BondedDay, error) {
	if o.sources.Bonds == nil {
		return nil, fmt.Errorf("fetch bonded tokens: %w", ErrMissingSource)
	}
	start := time.Now()
	days, err := o.sources.Bonds.DailyBondedTokens(ctx, o.settings.BondDatabase, o.settings.BondTable, o.settings.BondedSince)
	o.metrics.RecordDBQuery("warehouse", "daily_bonded_tokens", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("fetch bonded tokens: %w", err)
	}
	return days, nil
}

func (o *Orchestrator) buildOsmosis(ctx context.Context) (domain.ProtocolTable, error) {
	bonded, apr, err := normalization.ReadOsmosisFiles(o.sources.Files)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	resp, err := o.quotes(ctx, o.settings.OsmosisAsset)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	tables, err := normalization.NormalizeOsmosis(normalization.OsmosisRaw{
		BondedPercentage: bonded,
		StakingAPR:       apr,
		Quotes:           resp,
		AssetID:          o.settings.OsmosisAsset,
	})
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	return merge.Osmosis(tables), nil
}

func (o *Orchestrator) buildAtom(ctx context.Context) (domain.ProtocolTable, error) {
	bonded, inflation, apr, bondedPct, err := normalization.ReadAtomFiles(o.sources.Files)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	resp, err := o.quotes(ctx, o.settings.AtomAsset)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	tables, err := normalization.NormalizeAtom(normalization.AtomRaw{
		BondedTokens:  bonded,
		Inflation:     inflation,
		StakingAPR:    apr,
		BondedPercent: bondedPct,
		Quotes:        resp,
		AssetID:       o.settings.AtomAsset,
	})
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	return merge.Atom(tables), nil
}

func (o *Orchestrator) buildDYDX(ctx context.Context) (domain.ProtocolTable, error) {
	id := o.settings.DYDXIdentity
	resp, err := o.quotes(ctx, id.LegacyID, id.SuccessorID)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	days, err := o.bonds(ctx)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	aprs, err := ingestion.ReadAPRBlob(o.sources.Files, ingestion.DYDXAPRBlob)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	tables, err := normalization.NormalizeDYDX(normalization.DYDXRaw{
		Bonds:    days,
		APR:      aprs,
		Quotes:   resp,
		Identity: id,
	})
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	return merge.DYDX(tables), nil
}

func (o *Orchestrator) buildCurve() (domain.ProtocolTable, error) {
	raw, err := normalization.ReadCurveFiles(o.sources.Files)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	tables, err := normalization.NormalizeCurve(raw)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	return merge.Curve(tables), nil
}

func (o *Orchestrator) buildGMX() (domain.ProtocolTable, error) {
	raw, err := normalization.ReadGMXFiles(o.sources.Files)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	tables, err := normalization.NormalizeGMX(raw)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	return merge.GMX(tables), nil
}

func (o *Orchestrator) buildBalancer() (domain.ProtocolTable, error) {
	raw, err := normalization.ReadBalancerFiles(o.sources.Files)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	tables, err := normalization.NormalizeBalancer(raw)
	if err != nil {
		return domain.ProtocolTable{}, err
	}
	return merge.Balancer(tables), nil
}
