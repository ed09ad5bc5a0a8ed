package domain

import (
	"sort"

	"github.com/guregu/null/v6"
)

// Field identifies an optional metric column of a ProtocolRow.
type Field int

const (
	FieldPrice Field = iota
	FieldCircSupply
	FieldTotalSupply
	FieldBondedSupply
	FieldBondedPercent
	FieldAPR
	FieldInflation
	FieldMarketCap
	FieldVolume24h
	FieldReportedTotalSupply
)

// Fields lists every metric field in column order.
func Fields() []Field {
	return []Field{
		FieldPrice, FieldCircSupply, FieldTotalSupply, FieldBondedSupply,
		FieldBondedPercent, FieldAPR, FieldInflation,
		FieldMarketCap, FieldVolume24h, FieldReportedTotalSupply,
	}
}

var fieldColumns = map[Field][2]string{
	// canonical per-protocol name, consolidated output name
	FieldPrice:               {"price", "price"},
	FieldCircSupply:          {"circ_supply", "circ_supply"},
	FieldTotalSupply:         {"total_supply", "total_supply"},
	FieldBondedSupply:        {"bonded_supply", "bonded_tokens"},
	FieldBondedPercent:       {"bonded_percent", "bonded_percentage"},
	FieldAPR:                 {"apr", "apr"},
	FieldInflation:           {"inflation", "inflation"},
	FieldMarketCap:           {"market_cap", "market_cap"},
	FieldVolume24h:           {"volume_24h", "volume_24h"},
	FieldReportedTotalSupply: {"reported_total_supply", "reported_total_supply"},
}

// Column is the field's name in a per-protocol table.
func (f Field) Column() string { return fieldColumns[f][0] }

// OutputColumn is the field's name in the consolidated output.
func (f Field) OutputColumn() string { return fieldColumns[f][1] }

func (f Field) String() string { return f.Column() }

// FieldByColumn resolves a per-protocol column name.
func FieldByColumn(name string) (Field, bool) {
	for f, cols := range fieldColumns {
		if cols[0] == name {
			return f, true
		}
	}
	return 0, false
}

// FieldByOutputColumn resolves a consolidated output column name.
func FieldByOutputColumn(name string) (Field, bool) {
	for f, cols := range fieldColumns {
		if cols[1] == name {
			return f, true
		}
	}
	return 0, false
}

// ProtocolRow is one day of a canonical per-protocol table.
// Metrics that no source provided stay unset; they are never zero-filled.
type ProtocolRow struct {
	Date                Date
	Price               null.Float // USD
	CircSupply          null.Float // tokens in circulation
	TotalSupply         null.Float // circ_supply + bonded_supply
	BondedSupply        null.Float // staked/locked tokens
	BondedPercent       null.Float // fraction in [0,1]
	APR                 null.Float // staking APR
	Inflation           null.Float // day-over-day relative change of a supply series
	MarketCap           null.Float
	Volume24h           null.Float
	ReportedTotalSupply null.Float // total supply as reported by the quote API
	Token               null.String
}

// Get returns the value of field f.
func (r *ProtocolRow) Get(f Field) null.Float {
	if p := r.ref(f); p != nil {
		return *p
	}
	return null.Float{}
}

// Set assigns v to field f.
func (r *ProtocolRow) Set(f Field, v null.Float) {
	if p := r.ref(f); p != nil {
		*p = v
	}
}

func (r *ProtocolRow) ref(f Field) *null.Float {
	switch f {
	case FieldPrice:
		return &r.Price
	case FieldCircSupply:
		return &r.CircSupply
	case FieldTotalSupply:
		return &r.TotalSupply
	case FieldBondedSupply:
		return &r.BondedSupply
	case FieldBondedPercent:
		return &r.BondedPercent
	case FieldAPR:
		return &r.APR
	case FieldInflation:
		return &r.Inflation
	case FieldMarketCap:
		return &r.MarketCap
	case FieldVolume24h:
		return &r.Volume24h
	case FieldReportedTotalSupply:
		return &r.ReportedTotalSupply
	default:
		return nil
	}
}

// Coalesce fills every unset field of r from other.
func (r *ProtocolRow) Coalesce(other ProtocolRow) {
	for _, f := range Fields() {
		if !r.Get(f).Valid && other.Get(f).Valid {
			r.Set(f, other.Get(f))
		}
	}
	if !r.Token.Valid && other.Token.Valid {
		r.Token = other.Token
	}
}

// HasAll reports whether every listed field is set.
func (r *ProtocolRow) HasAll(fields ...Field) bool {
	for _, f := range fields {
		if !r.Get(f).Valid {
			return false
		}
	}
	return true
}

// SortRowsByDate sorts rows ascending by date, keeping the order of equal dates.
func SortRowsByDate(rows []ProtocolRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}

// DedupeByDate keeps the first row of each date, preserving order.
func DedupeByDate(rows []ProtocolRow) []ProtocolRow {
	seen := make(map[Date]bool, len(rows))
	out := make([]ProtocolRow, 0, len(rows))
	for _, r := range rows {
		if seen[r.Date] {
			continue
		}
		seen[r.Date] = true
		out = append(out, r)
	}
	return out
}

// DateKey records where a protocol table carries its date.
type DateKey int

const (
	// DateAsColumn tables carry the date as an ordinary "date" column.
	DateAsColumn DateKey = iota
	// DateAsRowLabel tables use the date as the row label ("timestamp" index).
	DateAsRowLabel
)

func (k DateKey) String() string {
	if k == DateAsRowLabel {
		return "row_label"
	}
	return "column"
}

// ProtocolTable is the merged canonical table of one protocol.
type ProtocolTable struct {
	Chain   Chain
	DateKey DateKey
	Rows    []ProtocolRow
}

// BondedDay is the bonded-token total of one day, already scaled to whole tokens.
type BondedDay struct {
	Date   Date
	Tokens null.Float
}
