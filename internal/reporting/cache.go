package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/normalization"
	"tokenomics-lab/internal/standardize"
	"tokenomics-lab/internal/units"
)

// ErrNoDateColumn is returned when a cached table has neither a date nor a
// timestamp column.
var ErrNoDateColumn = errors.New("cached table has no date column")

// CachePath returns the path of the cached table of chain, relative to the
// cache directory.
func CachePath(chain domain.Chain) string {
	return path.Join(chain.Slug(), chain.Slug()+"_data.csv")
}

// WriteProtocolCSV writes a merged protocol table. Row-label tables use a
// leading "timestamp" column; the others a leading "date" column.
func WriteProtocolCSV(w io.Writer, t domain.ProtocolTable) error {
	dateColumn := "date"
	if t.DateKey == domain.DateAsRowLabel {
		dateColumn = "timestamp"
	}

	fields := domain.Fields()
	header := make([]string, 0, len(fields)+3)
	header = append(header, dateColumn)
	for _, f := range fields {
		header = append(header, f.Column())
	}
	header = append(header, "has_liquid_staking", "token")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	liquid := formatBool(t.Chain.HasLiquidStaking())
	for i := range t.Rows {
		r := &t.Rows[i]
		record := make([]string, 0, len(header))
		record = append(record, r.Date.String())
		for _, f := range fields {
			record = append(record, formatFloat(r.Get(f)))
		}
		record = append(record, liquid, r.Token.ValueOrZero())
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", r.Date, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadProtocolCSV reads a cached protocol table. Column names are resolved
// through the synonym map, so tables written with legacy names such as
// percentage_bonded or daily_inflation_rate are accepted. Unknown columns are
// ignored.
func ReadProtocolCSV(r io.Reader, chain domain.Chain) (domain.ProtocolTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return domain.ProtocolTable{}, fmt.Errorf("read cache header: %w", err)
	}

	t := domain.ProtocolTable{Chain: chain, DateKey: domain.DateAsColumn}
	dateIdx, tokenIdx := -1, -1
	fieldIdx := make(map[int]domain.Field)

	for i, name := range header {
		switch {
		case name == "timestamp" && dateIdx < 0:
			dateIdx = i
			t.DateKey = domain.DateAsRowLabel
		case name == "date" && dateIdx < 0:
			dateIdx = i
		case name == "token":
			tokenIdx = i
		default:
			if f, ok := domain.FieldByOutputColumn(standardize.Resolve(name)); ok {
				fieldIdx[i] = f
			}
		}
	}
	if dateIdx < 0 {
		return domain.ProtocolTable{}, fmt.Errorf("%s: %w", chain, ErrNoDateColumn)
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.ProtocolTable{}, fmt.Errorf("read cache line %d: %w", line, err)
		}
		if dateIdx >= len(record) || units.IsBlank(record[dateIdx]) {
			continue
		}

		d, err := normalization.ParseTimestamp(record[dateIdx])
		if err != nil {
			return domain.ProtocolTable{}, fmt.Errorf("cache line %d: %w", line, err)
		}
		row := domain.ProtocolRow{Date: d}
		for i, f := range fieldIdx {
			if i >= len(record) {
				continue
			}
			v, err := units.ParseFloat(record[i])
			if err != nil {
				return domain.ProtocolTable{}, fmt.Errorf("cache line %d column %s: %w", line, header[i], err)
			}
			row.Set(f, v)
		}
		if tokenIdx >= 0 && tokenIdx < len(record) && record[tokenIdx] != "" {
			row.Token = null.StringFrom(record[tokenIdx])
		}
		t.Rows = append(t.Rows, row)
	}

	domain.SortRowsByDate(t.Rows)
	t.Rows = domain.DedupeByDate(t.Rows)
	return t, nil
}
