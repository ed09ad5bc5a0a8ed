// Package merge combines the normalized sub-tables of one protocol into a
// single row-per-date table.
package merge

import (
	"math"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
)

// OuterJoin joins tables left to right on date. Every date present in any
// input appears once in the result; fields are filled from the leftmost
// table that sets them. Each input is de-duplicated by date first, keeping
// its first row. The result is sorted ascending by date.
func OuterJoin(tables ...[]domain.ProtocolRow) []domain.ProtocolRow {
	index := make(map[domain.Date]int)
	var out []domain.ProtocolRow

	for _, t := range tables {
		for _, r := range domain.DedupeByDate(t) {
			if i, ok := index[r.Date]; ok {
				out[i].Coalesce(r)
				continue
			}
			index[r.Date] = len(out)
			out = append(out, r)
		}
	}
	domain.SortRowsByDate(out)
	return out
}

// LeftJoin keeps the dates of left and fills unset fields from right.
func LeftJoin(left, right []domain.ProtocolRow) []domain.ProtocolRow {
	byDate := make(map[domain.Date]domain.ProtocolRow, len(right))
	for _, r := range domain.DedupeByDate(right) {
		byDate[r.Date] = r
	}

	out := domain.DedupeByDate(left)
	for i := range out {
		if r, ok := byDate[out[i].Date]; ok {
			out[i].Coalesce(r)
		}
	}
	domain.SortRowsByDate(out)
	return out
}

// DropIncomplete returns the rows where every listed field is set.
func DropIncomplete(rows []domain.ProtocolRow, fields ...domain.Field) []domain.ProtocolRow {
	out := rows[:0:0]
	for _, r := range rows {
		if r.HasAll(fields...) {
			out = append(out, r)
		}
	}
	return out
}

// bondedFromPercent sets bonded supply to pct * circ, rounded half to even,
// where it is unset and both inputs are set.
func bondedFromPercent(rows []domain.ProtocolRow) {
	for i := range rows {
		r := &rows[i]
		if r.BondedSupply.Valid || !r.BondedPercent.Valid || !r.CircSupply.Valid {
			continue
		}
		r.BondedSupply = null.FloatFrom(math.RoundToEven(r.BondedPercent.Float64 * r.CircSupply.Float64))
	}
}
