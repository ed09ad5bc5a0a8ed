package normalization

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/ingestion"
	"tokenomics-lab/internal/units"
)

// columnParser converts the raw cells of one column.
type columnParser func(values []string) ([]null.Float, error)

// binding assigns a parsed column to a row field.
type binding struct {
	column string
	field  domain.Field
	parse  columnParser
}

func plain(column string, field domain.Field) binding {
	return binding{column: column, field: field, parse: parseEach(units.ParseFloat)}
}

func percent(column string, field domain.Field) binding {
	return binding{column: column, field: field, parse: units.PercentColumn}
}

func grouped(column string, field domain.Field) binding {
	return binding{column: column, field: field, parse: parseEach(units.ParseGroupedNumber)}
}

// percentPoints binds a column holding values like 46.1 meaning 46.1%.
func percentPoints(column string, field domain.Field) binding {
	return binding{column: column, field: field, parse: mapped(parseEach(units.ParseFloat), func(v float64) float64 { return v / 100 })}
}

func monthlyAPR(column string, field domain.Field) binding {
	return binding{column: column, field: field, parse: mapped(parseEach(units.ParseFloat), units.MonthlyScaledAPRToAnnual)}
}

func parseEach(fn func(string) (null.Float, error)) columnParser {
	return func(values []string) ([]null.Float, error) {
		out := make([]null.Float, len(values))
		for i, v := range values {
			f, err := fn(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			out[i] = f
		}
		return out, nil
	}
}

func mapped(p columnParser, fn func(float64) float64) columnParser {
	return func(values []string) ([]null.Float, error) {
		out, err := p(values)
		if err != nil {
			return nil, err
		}
		for i := range out {
			if out[i].Valid {
				out[i] = null.FloatFrom(fn(out[i].Float64))
			}
		}
		return out, nil
	}
}

// buildRows converts a table into dated rows. Rows with a blank date are skipped.
func buildRows(t *ingestion.Table, dateColumn string, bindings ...binding) ([]domain.ProtocolRow, error) {
	dates, err := t.Column(dateColumn)
	if err != nil {
		return nil, err
	}

	parsed := make([][]null.Float, len(bindings))
	for i, b := range bindings {
		values, err := t.Column(b.column)
		if err != nil {
			return nil, err
		}
		if parsed[i], err = b.parse(values); err != nil {
			return nil, fmt.Errorf("%s column %s: %w", t.Name, b.column, err)
		}
	}

	rows := make([]domain.ProtocolRow, 0, len(dates))
	for r, raw := range dates {
		if units.IsBlank(raw) {
			continue
		}
		d, err := ParseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, r+1, err)
		}
		row := domain.ProtocolRow{Date: d}
		for i, b := range bindings {
			row.Set(b.field, parsed[i][r])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CompleteSupply enforces total = circ + bonded: when exactly one of the
// three supply fields is unset and the other two are set, it is derived.
func CompleteSupply(rows []domain.ProtocolRow) {
	for i := range rows {
		r := &rows[i]
		circ, total, bonded := r.CircSupply, r.TotalSupply, r.BondedSupply
		switch {
		case !total.Valid && circ.Valid && bonded.Valid:
			r.TotalSupply = null.FloatFrom(circ.Float64 + bonded.Float64)
		case !circ.Valid && total.Valid && bonded.Valid:
			r.CircSupply = null.FloatFrom(total.Float64 - bonded.Float64)
		case !bonded.Valid && total.Valid && circ.Valid:
			r.BondedSupply = null.FloatFrom(total.Float64 - circ.Float64)
		}
	}
}

// PctChange writes into dst the relative change of src against the previous
// row where src is set. Rows must be sorted by date. The first set value,
// unset values and changes from zero produce unset results.
func PctChange(rows []domain.ProtocolRow, src, dst domain.Field) {
	var prev null.Float
	for i := range rows {
		cur := rows[i].Get(src)
		if !cur.Valid {
			rows[i].Set(dst, null.Float{})
			continue
		}
		change := null.Float{}
		if prev.Valid && prev.Float64 != 0 {
			v := cur.Float64/prev.Float64 - 1
			if !math.IsInf(v, 0) && !math.IsNaN(v) {
				change = null.FloatFrom(v)
			}
		}
		rows[i].Set(dst, change)
		prev = cur
	}
}

// Ratio writes num/den into dst for every row.
func Ratio(rows []domain.ProtocolRow, num, den, dst domain.Field) {
	for i := range rows {
		rows[i].Set(dst, units.Ratio(rows[i].Get(num), rows[i].Get(den)))
	}
}

// sortedUnique sorts rows by date and keeps the first row of each date.
func sortedUnique(rows []domain.ProtocolRow) []domain.ProtocolRow {
	domain.SortRowsByDate(rows)
	return domain.DedupeByDate(rows)
}
