package domain

import "github.com/guregu/null/v6"

// ChainRow is one row of the consolidated output.
// Corresponds to the chain_metrics table in PostgreSQL.
type ChainRow struct {
	Date                Date
	Chain               Chain
	Price               null.Float
	CircSupply          null.Float
	TotalSupply         null.Float
	BondedTokens        null.Float
	BondedPercentage    null.Float
	APR                 null.Float
	Inflation           null.Float
	HasLiquidStaking    bool
	MarketCap           null.Float
	Volume24h           null.Float
	ReportedTotalSupply null.Float
	Token               null.String
}

// OutputColumns is the header of the consolidated output, in order.
var OutputColumns = []string{
	"date", "chain", "price", "circ_supply", "total_supply", "bonded_tokens",
	"bonded_percentage", "apr", "inflation", "has_liquid_staking",
	"market_cap", "volume_24h", "reported_total_supply", "token",
}

// Metric returns the output value of field f.
func (r *ChainRow) Metric(f Field) null.Float {
	switch f {
	case FieldPrice:
		return r.Price
	case FieldCircSupply:
		return r.CircSupply
	case FieldTotalSupply:
		return r.TotalSupply
	case FieldBondedSupply:
		return r.BondedTokens
	case FieldBondedPercent:
		return r.BondedPercentage
	case FieldAPR:
		return r.APR
	case FieldInflation:
		return r.Inflation
	case FieldMarketCap:
		return r.MarketCap
	case FieldVolume24h:
		return r.Volume24h
	case FieldReportedTotalSupply:
		return r.ReportedTotalSupply
	default:
		return null.Float{}
	}
}
