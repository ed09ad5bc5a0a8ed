package reporting

import (
	"cmp"
	"context"
	"slices"
	"time"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/idhash"
	"tokenomics-lab/internal/storage"
)

// coreFields are the metrics every complete row carries.
var coreFields = []domain.Field{
	domain.FieldPrice,
	domain.FieldCircSupply,
	domain.FieldTotalSupply,
	domain.FieldBondedSupply,
	domain.FieldBondedPercent,
	domain.FieldAPR,
	domain.FieldInflation,
}

// Generator produces reports from stored chain rows.
type Generator struct {
	store storage.ChainRowStore
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(store storage.ChainRowStore) *Generator {
	return &Generator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads every stored row and summarizes it. failures lists the
// chains that failed in the run being reported.
func (g *Generator) Generate(ctx context.Context, runID string, failures map[domain.Chain]error) (*Report, error) {
	rows, err := g.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	r := Summarize(rows, failures)
	r.GeneratedAt = g.now()
	r.RunID = runID
	r.DataVersion = idhash.ComputeDataVersion(rows)
	return r, nil
}

// Summarize computes per chain coverage and missing values per column.
func Summarize(rows []domain.ChainRow, failures map[domain.Chain]error) *Report {
	r := &Report{TotalRows: len(rows)}

	byChain := make(map[domain.Chain]*ChainSummary)
	missing := make([]int, len(domain.OutputColumns))

	for i := range rows {
		row := &rows[i]

		s, ok := byChain[row.Chain]
		if !ok {
			s = &ChainSummary{Chain: row.Chain, FirstDate: row.Date, LastDate: row.Date}
			byChain[row.Chain] = s
		}
		s.Rows++
		if row.Date.Before(s.FirstDate) {
			s.FirstDate = row.Date
		}
		if row.Date.After(s.LastDate) {
			s.LastDate = row.Date
		}

		complete := true
		for _, f := range coreFields {
			if !row.Metric(f).Valid {
				complete = false
				break
			}
		}
		if complete {
			s.Complete++
		}

		for c, col := range domain.OutputColumns {
			if cellMissing(row, col) {
				missing[c]++
			}
		}
	}

	for _, s := range byChain {
		r.Chains = append(r.Chains, *s)
	}
	slices.SortFunc(r.Chains, func(a, b ChainSummary) int { return cmp.Compare(a.Chain, b.Chain) })

	for c, col := range domain.OutputColumns {
		r.Columns = append(r.Columns, ColumnSummary{Column: col, Missing: missing[c]})
	}

	for chain, err := range failures {
		r.Failures = append(r.Failures, ChainFailure{Chain: chain, Error: err.Error()})
	}
	slices.SortFunc(r.Failures, func(a, b ChainFailure) int { return cmp.Compare(a.Chain, b.Chain) })

	return r
}

func cellMissing(row *domain.ChainRow, column string) bool {
	switch column {
	case "date":
		return row.Date.IsZero()
	case "chain":
		return row.Chain == ""
	case "has_liquid_staking":
		return false
	case "token":
		return !row.Token.Valid
	}
	f, ok := domain.FieldByOutputColumn(column)
	if !ok {
		return false
	}
	return !row.Metric(f).Valid
}
