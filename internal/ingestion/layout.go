package ingestion

import "tokenomics-lab/internal/domain"

// Input file paths, relative to the data directory.
const (
	OsmosisBondedPercentage = "osmosis/osmosis_bonded_percentage.csv"
	OsmosisStakingAPR       = "osmosis/osmosis_staking_apr.csv"

	AtomBondedTokens  = "atom/atom_bonded_tokens.csv"
	AtomInflation     = "atom/atom_inflation.csv"
	AtomStakingAPR    = "atom/atom_staking_apr.csv"
	AtomBondedPercent = "atom/atom_bonded_percent.csv"

	DYDXAPRBlob   = "dydx/fully[2024-06-19--f1112].dat"
	DYDXAPRExport = "dydx/dydx_apr.csv"

	CurvePrice  = "crv/daily_price_data.csv"
	CurveSupply = "crv/supply_data.csv"
	CurveMisc   = "crv/misc_data.csv"
	CurveAPY    = "crv/apy_data.csv"

	GMXGLP     = "gmx/glp_data.csv"
	GMXSupply  = "gmx/supply_data.csv"
	GMXPrice   = "gmx/price_data.csv"
	GMXStaking = "gmx/staking_data.csv"
	GMXAPY     = "gmx/apy_data.csv"

	BalancerPrice  = "bal/daily_price_data.csv"
	BalancerSupply = "bal/supply_data.csv"
	BalancerAPR    = "bal/apr_data.csv"
)

// DuneExport is a CSV file refreshed from a saved Dune query.
type DuneExport struct {
	Chain   domain.Chain
	QueryID int
	Path    string
}

// DuneExports lists the saved queries behind the Curve, GMX and Balancer inputs.
// The Curve misc and GMX GLP exports are downloaded for reference only.
func DuneExports() []DuneExport {
	return []DuneExport{
		{domain.ChainCurve, 3994146, CurvePrice},
		{domain.ChainCurve, 3994271, CurveSupply},
		{domain.ChainCurve, 3893488, CurveMisc},
		{domain.ChainCurve, 3994290, CurveAPY},
		{domain.ChainGMX, 1066775, GMXGLP},
		{domain.ChainGMX, 1108993, GMXSupply},
		{domain.ChainGMX, 3997647, GMXPrice},
		{domain.ChainGMX, 1036839, GMXStaking},
		{domain.ChainGMX, 2657814, GMXAPY},
		{domain.ChainBalancer, 3931901, BalancerPrice},
		{domain.ChainBalancer, 543807, BalancerSupply},
		{domain.ChainBalancer, 3939002, BalancerAPR},
	}
}
