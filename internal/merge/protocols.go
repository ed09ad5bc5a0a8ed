package merge

import (
	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/normalization"
)

// coreFields must all be set for a row of a density-enforcing protocol to survive.
var coreFields = []domain.Field{
	domain.FieldPrice,
	domain.FieldCircSupply,
	domain.FieldTotalSupply,
	domain.FieldBondedSupply,
	domain.FieldBondedPercent,
	domain.FieldAPR,
	domain.FieldInflation,
}

// osmosisFields are the core fields Osmosis has a source for; it has no
// inflation series.
var osmosisFields = coreFields[:len(coreFields)-1]

// Osmosis merges bonded percentage, APR and quotes, then derives bonded
// tokens from the bonded share of circulating supply, and keeps only
// complete days.
func Osmosis(t normalization.OsmosisTables) domain.ProtocolTable {
	rows := OuterJoin(t.BondedPercent, t.StakingAPR, t.Quotes)
	bondedFromPercent(rows)
	normalization.CompleteSupply(rows)
	return domain.ProtocolTable{Chain: domain.ChainOsmosis, DateKey: domain.DateAsColumn, Rows: DropIncomplete(rows, osmosisFields...)}
}

// Atom merges the four exports with the quotes and keeps only complete days.
func Atom(t normalization.AtomTables) domain.ProtocolTable {
	rows := OuterJoin(t.BondedTokens, t.Inflation, t.StakingAPR, t.BondedPercent, t.Quotes)
	normalization.CompleteSupply(rows)
	return domain.ProtocolTable{Chain: domain.ChainAtom, DateKey: domain.DateAsColumn, Rows: DropIncomplete(rows, coreFields...)}
}

// DYDX attaches warehouse bonds and APR to the quoted circulation. The quote
// dates drive the row set and rows missing bonds or APR are kept.
func DYDX(t normalization.DYDXTables) domain.ProtocolTable {
	rows := LeftJoin(t.Circulation, t.Bonds)
	normalization.Ratio(rows, domain.FieldBondedSupply, domain.FieldCircSupply, domain.FieldBondedPercent)
	rows = LeftJoin(rows, t.APR)
	normalization.CompleteSupply(rows)
	return domain.ProtocolTable{Chain: domain.ChainDYDX, DateKey: domain.DateAsColumn, Rows: rows}
}

// Curve merges price, supply and APY and keeps only complete days.
func Curve(t normalization.CurveTables) domain.ProtocolTable {
	rows := OuterJoin(t.Price, t.Supply, t.APY)
	return domain.ProtocolTable{Chain: domain.ChainCurve, DateKey: domain.DateAsRowLabel, Rows: DropIncomplete(rows, coreFields...)}
}

// GMX merges the four exports, derives circulating supply, the bonded share
// of total supply and the inflation of circulating supply, and keeps only
// complete days.
func GMX(t normalization.GMXTables) domain.ProtocolTable {
	rows := OuterJoin(t.Price, t.Supply, t.Staking, t.APY)
	normalization.CompleteSupply(rows)
	normalization.Ratio(rows, domain.FieldBondedSupply, domain.FieldTotalSupply, domain.FieldBondedPercent)
	normalization.PctChange(rows, domain.FieldCircSupply, domain.FieldInflation)
	return domain.ProtocolTable{Chain: domain.ChainGMX, DateKey: domain.DateAsRowLabel, Rows: DropIncomplete(rows, coreFields...)}
}

// Balancer merges price, supply and APR and keeps only complete days.
func Balancer(t normalization.BalancerTables) domain.ProtocolTable {
	rows := OuterJoin(t.Price, t.Supply, t.APR)
	return domain.ProtocolTable{Chain: domain.ChainBalancer, DateKey: domain.DateAsRowLabel, Rows: DropIncomplete(rows, coreFields...)}
}
