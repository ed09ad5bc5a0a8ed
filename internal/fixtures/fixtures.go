// Package fixtures provides offline demo inputs for every chain: the CSV
// exports, the dYdX APR blob, canned quote payloads and validator bond totals.
// The data covers 2023-12-10 through 2023-12-14, straddling the dYdX cutoff.
package fixtures

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/config"
	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/marketdata"
	"tokenomics-lab/internal/storage/memory"
)

//go:embed data
var data embed.FS

// First and Last bound the fixture dates.
var (
	First = domain.NewDate(2023, time.December, 10)
	Last  = domain.NewDate(2023, time.December, 14)
)

// ExpectedRows is the number of consolidated rows a full fixture run yields
// per chain. The Dune-based protocols lose their first day, which has no
// inflation.
var ExpectedRows = map[domain.Chain]int{
	domain.ChainOsmosis:  5,
	domain.ChainAtom:     5,
	domain.ChainDYDX:     5,
	domain.ChainCurve:    4,
	domain.ChainGMX:      4,
	domain.ChainBalancer: 4,
}

// Files returns the data directory.
func Files() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// QuoteSource serves the canned quote payload, restricted to the requested ids.
type QuoteSource struct {
	resp marketdata.HistoricalQuotesResponse
}

// NewQuoteSource decodes the embedded quote payload.
func NewQuoteSource() (*QuoteSource, error) {
	raw, err := fs.ReadFile(data, "data/quotes.json")
	if err != nil {
		return nil, fmt.Errorf("read quote fixture: %w", err)
	}
	var resp marketdata.HistoricalQuotesResponse
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode quote fixture: %w", err)
	}
	return &QuoteSource{resp: resp}, nil
}

// HistoricalQuotes returns the fixture snapshots of ids. Unknown ids are
// left out of the payload, as the live API does.
func (s *QuoteSource) HistoricalQuotes(_ context.Context, ids []string, _ domain.Window) (*marketdata.HistoricalQuotesResponse, error) {
	out := &marketdata.HistoricalQuotesResponse{
		Status: s.resp.Status,
		Data:   make(map[string]marketdata.AssetQuotes, len(ids)),
	}
	for _, id := range ids {
		if asset, ok := s.resp.Data[id]; ok {
			out.Data[id] = asset
		}
	}
	return out, nil
}

// BondedDays are the dYdX validator bond totals, newest first, already
// scaled to whole tokens.
func BondedDays() []domain.BondedDay {
	out := make([]domain.BondedDay, 0, 5)
	for d := Last; !d.Before(First); d = d.AddDays(-1) {
		offset := d.Time().Sub(First.Time()).Hours() / 24
		out = append(out, domain.BondedDay{
			Date:   d,
			Tokens: null.FloatFrom(187_450_000 + offset*25_000),
		})
	}
	return out
}

// BondStore returns a store serving BondedDays under the default validator table.
func BondStore() *memory.BondedTokenStore {
	store := memory.NewBondedTokenStore()
	store.Put(config.DYDXValidatorDatabase, config.DYDXValidatorTable, BondedDays())
	return store
}
