package normalization

import (
	"fmt"
	"io/fs"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/ingestion"
	"tokenomics-lab/internal/marketdata"
)

// OsmosisRaw holds the Osmosis inputs.
type OsmosisRaw struct {
	BondedPercentage *ingestion.Table // [date, bonded_percent]
	StakingAPR       *ingestion.Table // [date, apr]
	Quotes           *marketdata.HistoricalQuotesResponse
	AssetID          string
}

// OsmosisTables are the normalized Osmosis sub-tables.
type OsmosisTables struct {
	BondedPercent []domain.ProtocolRow
	StakingAPR    []domain.ProtocolRow
	Quotes        []domain.ProtocolRow
}

// ReadOsmosisFiles reads the Osmosis CSV exports. The header row is
// discarded and the columns are named positionally.
func ReadOsmosisFiles(fsys fs.FS) (*ingestion.Table, *ingestion.Table, error) {
	bonded, err := ingestion.ReadFile(fsys, ingestion.OsmosisBondedPercentage, ingestion.WithColumnNames("date", "bonded_percent"))
	if err != nil {
		return nil, nil, err
	}
	apr, err := ingestion.ReadFile(fsys, ingestion.OsmosisStakingAPR, ingestion.WithColumnNames("date", "apr"))
	if err != nil {
		return nil, nil, err
	}
	return bonded, apr, nil
}

// NormalizeOsmosis parses percentage columns and flattens the quotes.
func NormalizeOsmosis(raw OsmosisRaw) (OsmosisTables, error) {
	var out OsmosisTables
	var err error

	if out.BondedPercent, err = buildRows(raw.BondedPercentage, "date", percent("bonded_percent", domain.FieldBondedPercent)); err != nil {
		return OsmosisTables{}, fmt.Errorf("normalize osmosis bonded percentage: %w", err)
	}
	if out.StakingAPR, err = buildRows(raw.StakingAPR, "date", percent("apr", domain.FieldAPR)); err != nil {
		return OsmosisTables{}, fmt.Errorf("normalize osmosis staking apr: %w", err)
	}
	if out.Quotes, err = QuoteRows(raw.Quotes, raw.AssetID); err != nil {
		return OsmosisTables{}, fmt.Errorf("normalize osmosis quotes: %w", err)
	}
	return out, nil
}

// AtomRaw holds the Cosmos Hub inputs.
type AtomRaw struct {
	BondedTokens  *ingestion.Table // [date, bonded_supply] with grouped digits
	Inflation     *ingestion.Table // [date, inflation]
	StakingAPR    *ingestion.Table // [date, staking_apr]
	BondedPercent *ingestion.Table // [date, bonded_percent]
	Quotes        *marketdata.HistoricalQuotesResponse
	AssetID       string
}

// AtomTables are the normalized Cosmos Hub sub-tables.
type AtomTables struct {
	BondedTokens  []domain.ProtocolRow
	Inflation     []domain.ProtocolRow
	StakingAPR    []domain.ProtocolRow
	BondedPercent []domain.ProtocolRow
	Quotes        []domain.ProtocolRow
}

// ReadAtomFiles reads the Cosmos Hub CSV exports positionally.
func ReadAtomFiles(fsys fs.FS) (bonded, inflation, apr, bondedPct *ingestion.Table, err error) {
	if bonded, err = ingestion.ReadFile(fsys, ingestion.AtomBondedTokens, ingestion.WithColumnNames("date", "bonded_supply")); err != nil {
		return
	}
	if inflation, err = ingestion.ReadFile(fsys, ingestion.AtomInflation, ingestion.WithColumnNames("date", "inflation")); err != nil {
		return
	}
	if apr, err = ingestion.ReadFile(fsys, ingestion.AtomStakingAPR, ingestion.WithColumnNames("date", "staking_apr")); err != nil {
		return
	}
	bondedPct, err = ingestion.ReadFile(fsys, ingestion.AtomBondedPercent, ingestion.WithColumnNames("date", "bonded_percent"))
	return
}

// NormalizeAtom parses grouped integers and percentage columns.
func NormalizeAtom(raw AtomRaw) (AtomTables, error) {
	var out AtomTables
	var err error

	if out.BondedTokens, err = buildRows(raw.BondedTokens, "date", grouped("bonded_supply", domain.FieldBondedSupply)); err != nil {
		return AtomTables{}, fmt.Errorf("normalize atom bonded tokens: %w", err)
	}
	if out.Inflation, err = buildRows(raw.Inflation, "date", percent("inflation", domain.FieldInflation)); err != nil {
		return AtomTables{}, fmt.Errorf("normalize atom inflation: %w", err)
	}
	if out.StakingAPR, err = buildRows(raw.StakingAPR, "date", percent("staking_apr", domain.FieldAPR)); err != nil {
		return AtomTables{}, fmt.Errorf("normalize atom staking apr: %w", err)
	}
	if out.BondedPercent, err = buildRows(raw.BondedPercent, "date", percent("bonded_percent", domain.FieldBondedPercent)); err != nil {
		return AtomTables{}, fmt.Errorf("normalize atom bonded percent: %w", err)
	}
	if out.Quotes, err = QuoteRows(raw.Quotes, raw.AssetID); err != nil {
		return AtomTables{}, fmt.Errorf("normalize atom quotes: %w", err)
	}
	return out, nil
}

// DYDXRaw holds the dYdX inputs.
type DYDXRaw struct {
	Bonds    []domain.BondedDay
	APR      []ingestion.APRRecord
	Quotes   *marketdata.HistoricalQuotesResponse // both legacy and successor ids
	Identity IdentitySwitch
}

// DYDXTables are the normalized dYdX sub-tables.
type DYDXTables struct {
	Circulation []domain.ProtocolRow // quotes reconciled across the identity switch
	Bonds       []domain.ProtocolRow
	APR         []domain.ProtocolRow
}

// NormalizeDYDX reconciles the two quoted identities and converts the bond
// and APR series to rows.
func NormalizeDYDX(raw DYDXRaw) (DYDXTables, error) {
	var out DYDXTables

	legacy, err := QuoteRows(raw.Quotes, raw.Identity.LegacyID)
	if err != nil {
		return DYDXTables{}, fmt.Errorf("normalize dydx legacy quotes: %w", err)
	}
	successor, err := QuoteRows(raw.Quotes, raw.Identity.SuccessorID)
	if err != nil {
		return DYDXTables{}, fmt.Errorf("normalize dydx quotes: %w", err)
	}
	out.Circulation = ReconcileIdentity(legacy, successor, raw.Identity.Cutoff)

	for _, b := range raw.Bonds {
		out.Bonds = append(out.Bonds, domain.ProtocolRow{Date: b.Date, BondedSupply: b.Tokens})
	}
	out.Bonds = sortedUnique(out.Bonds)

	if out.APR, err = buildRows(ingestion.APRTable(raw.APR), "date", plain("apr", domain.FieldAPR)); err != nil {
		return DYDXTables{}, fmt.Errorf("normalize dydx apr: %w", err)
	}
	out.APR = sortedUnique(out.APR)
	return out, nil
}
