package normalization

import (
	"errors"
	"fmt"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/marketdata"
)

var (
	// ErrMissingAsset is returned when a non-empty quote payload lacks a requested asset.
	ErrMissingAsset = errors.New("asset missing from quote payload")
	// ErrMissingCurrency is returned when a snapshot has no USD quote.
	ErrMissingCurrency = errors.New("quote currency missing")
)

// QuoteRows flattens the snapshots of one asset into rows. An empty
// payload (a rejected request) yields no rows and no error.
func QuoteRows(resp *marketdata.HistoricalQuotesResponse, assetID string) ([]domain.ProtocolRow, error) {
	if resp.Empty() {
		return nil, nil
	}
	asset, ok := resp.Data[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingAsset, assetID)
	}

	rows := make([]domain.ProtocolRow, 0, len(asset.Quotes))
	for i, snap := range asset.Quotes {
		usd, ok := snap.Quote[marketdata.DefaultCurrency]
		if !ok {
			return nil, fmt.Errorf("asset %s snapshot %d: %w", assetID, i, ErrMissingCurrency)
		}
		d, err := ParseTimestamp(snap.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("asset %s snapshot %d: %w", assetID, i, err)
		}
		row := domain.ProtocolRow{
			Date:                d,
			Price:               null.FloatFromPtr(usd.Price),
			CircSupply:          null.FloatFromPtr(usd.CirculatingSupply),
			MarketCap:           null.FloatFromPtr(usd.MarketCap),
			Volume24h:           null.FloatFromPtr(usd.Volume24h),
			ReportedTotalSupply: null.FloatFromPtr(usd.TotalSupply),
		}
		if asset.Name != "" {
			row.Token = null.StringFrom(asset.Name)
		}
		rows = append(rows, row)
	}
	return sortedUnique(rows), nil
}

// IdentitySwitch describes an asset re-issued under a new identifier.
type IdentitySwitch struct {
	LegacyID    string
	SuccessorID string
	Cutoff      domain.Date // first day served by the successor
}

// ReconcileIdentity keeps legacy rows dated strictly before cutoff and
// successor rows dated on or after it, sorted by date.
func ReconcileIdentity(legacy, successor []domain.ProtocolRow, cutoff domain.Date) []domain.ProtocolRow {
	out := make([]domain.ProtocolRow, 0, len(legacy)+len(successor))
	for _, r := range successor {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	for _, r := range legacy {
		if r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	domain.SortRowsByDate(out)
	return out
}
