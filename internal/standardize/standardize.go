// Package standardize reconciles the merged per-protocol tables into the
// single long-format output table.
package standardize

import (
	"cmp"
	"slices"

	"tokenomics-lab/internal/domain"
)

// Synonyms maps legacy and per-protocol column names to output column names.
var Synonyms = map[string]string{
	"bonded_percent":       "bonded_percentage",
	"percentage_bonded":    "bonded_percentage",
	"staking_apr":          "apr",
	"circulating_supply":   "circ_supply",
	"bonded_supply":        "bonded_tokens",
	"total_tokens":         "bonded_tokens",
	"timestamp":            "date",
	"daily_inflation_rate": "inflation",
}

// Resolve returns the output column name for a column name found in a
// protocol table. Names already in the output vocabulary resolve to
// themselves; unknown names are returned unchanged.
func Resolve(name string) string {
	if target, ok := Synonyms[name]; ok {
		return target
	}
	if f, ok := domain.FieldByColumn(name); ok {
		return f.OutputColumn()
	}
	return name
}

// ToChainRow maps a canonical row of chain into the output schema.
func ToChainRow(chain domain.Chain, r domain.ProtocolRow) domain.ChainRow {
	return domain.ChainRow{
		Date:                r.Date,
		Chain:               chain,
		Price:               r.Price,
		CircSupply:          r.CircSupply,
		TotalSupply:         r.TotalSupply,
		BondedTokens:        r.BondedSupply,
		BondedPercentage:    r.BondedPercent,
		APR:                 r.APR,
		Inflation:           r.Inflation,
		HasLiquidStaking:    chain.HasLiquidStaking(),
		MarketCap:           r.MarketCap,
		Volume24h:           r.Volume24h,
		ReportedTotalSupply: r.ReportedTotalSupply,
		Token:               r.Token,
	}
}

// Consolidate tags every row with its chain, concatenates the tables and
// sorts the result by chain, then date. Rows already carry plain calendar
// days whatever the table's DateKey: the row-label layout only exists in the
// cache files and is resolved when they are read.
func Consolidate(tables []domain.ProtocolTable) []domain.ChainRow {
	n := 0
	for _, t := range tables {
		n += len(t.Rows)
	}

	out := make([]domain.ChainRow, 0, n)
	for _, t := range tables {
		for _, r := range t.Rows {
			out = append(out, ToChainRow(t.Chain, r))
		}
	}

	slices.SortStableFunc(out, func(a, b domain.ChainRow) int {
		if c := cmp.Compare(a.Chain, b.Chain); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return out
}
