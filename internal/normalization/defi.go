package normalization

import (
	"fmt"
	"io/fs"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/ingestion"
	"tokenomics-lab/internal/units"
)

// CurveRaw holds the Curve query exports.
type CurveRaw struct {
	Price  *ingestion.Table // day, price
	Supply *ingestion.Table // date, CRV, veCRV, veCRV_Percent
	APY    *ingestion.Table // day, daily_apy
}

// CurveTables are the normalized Curve sub-tables.
type CurveTables struct {
	Price  []domain.ProtocolRow
	Supply []domain.ProtocolRow
	APY    []domain.ProtocolRow
}

// ReadCurveFiles reads the Curve exports.
func ReadCurveFiles(fsys fs.FS) (CurveRaw, error) {
	var raw CurveRaw
	var err error
	if raw.Price, err = ingestion.ReadFile(fsys, ingestion.CurvePrice); err != nil {
		return CurveRaw{}, err
	}
	if raw.Supply, err = ingestion.ReadFile(fsys, ingestion.CurveSupply); err != nil {
		return CurveRaw{}, err
	}
	if raw.APY, err = ingestion.ReadFile(fsys, ingestion.CurveAPY); err != nil {
		return CurveRaw{}, err
	}
	return raw, nil
}

// NormalizeCurve drops repeated records, derives total supply and its
// day-over-day inflation, and converts the published APY.
func NormalizeCurve(raw CurveRaw) (CurveTables, error) {
	var out CurveTables
	var err error

	if out.Price, err = buildRows(raw.Price.DropDuplicateRecords(), "day", plain("price", domain.FieldPrice)); err != nil {
		return CurveTables{}, fmt.Errorf("normalize curve price: %w", err)
	}

	out.Supply, err = buildRows(raw.Supply.DropDuplicateRecords(), "date",
		plain("CRV", domain.FieldCircSupply),
		plain("veCRV", domain.FieldBondedSupply),
		percentPoints("veCRV_Percent", domain.FieldBondedPercent),
	)
	if err != nil {
		return CurveTables{}, fmt.Errorf("normalize curve supply: %w", err)
	}
	out.Supply = sortedUnique(out.Supply)
	CompleteSupply(out.Supply)
	PctChange(out.Supply, domain.FieldTotalSupply, domain.FieldInflation)

	if out.APY, err = buildRows(raw.APY.DropDuplicateRecords(), "day", monthlyAPR("daily_apy", domain.FieldAPR)); err != nil {
		return CurveTables{}, fmt.Errorf("normalize curve apy: %w", err)
	}
	return out, nil
}

// GMXRaw holds the GMX query exports.
type GMXRaw struct {
	Supply  *ingestion.Table // time, total_supply (max), cir_supply
	Price   *ingestion.Table // time, gmx_price
	Staking *ingestion.Table // time_scale, gmx_s_total, gmx_u_total
	APY     *ingestion.Table // day, gmx_apr
}

// GMXTables are the normalized GMX sub-tables.
type GMXTables struct {
	Supply  []domain.ProtocolRow
	Price   []domain.ProtocolRow
	Staking []domain.ProtocolRow
	APY     []domain.ProtocolRow
}

// ReadGMXFiles reads the GMX exports.
func ReadGMXFiles(fsys fs.FS) (GMXRaw, error) {
	var raw GMXRaw
	var err error
	if raw.Supply, err = ingestion.ReadFile(fsys, ingestion.GMXSupply); err != nil {
		return GMXRaw{}, err
	}
	if raw.Price, err = ingestion.ReadFile(fsys, ingestion.GMXPrice); err != nil {
		return GMXRaw{}, err
	}
	if raw.Staking, err = ingestion.ReadFile(fsys, ingestion.GMXStaking); err != nil {
		return GMXRaw{}, err
	}
	if raw.APY, err = ingestion.ReadFile(fsys, ingestion.GMXAPY); err != nil {
		return GMXRaw{}, err
	}
	return raw, nil
}

// NormalizeGMX renames the GMX columns. The export's cir_supply counts
// staked tokens too, so it becomes total_supply; its total_supply column is
// the supply cap and is ignored.
func NormalizeGMX(raw GMXRaw) (GMXTables, error) {
	var out GMXTables
	var err error

	if out.Supply, err = buildRows(raw.Supply, "time", plain("cir_supply", domain.FieldTotalSupply)); err != nil {
		return GMXTables{}, fmt.Errorf("normalize gmx supply: %w", err)
	}
	if out.Price, err = buildRows(raw.Price, "time", plain("gmx_price", domain.FieldPrice)); err != nil {
		return GMXTables{}, fmt.Errorf("normalize gmx price: %w", err)
	}

	if out.Staking, err = stakedBalance(raw.Staking); err != nil {
		return GMXTables{}, fmt.Errorf("normalize gmx staking: %w", err)
	}

	if out.APY, err = buildRows(raw.APY, "day", plain("gmx_apr", domain.FieldAPR)); err != nil {
		return GMXTables{}, fmt.Errorf("normalize gmx apy: %w", err)
	}
	return out, nil
}

// BalancerRaw holds the Balancer query exports.
type BalancerRaw struct {
	Price  *ingestion.Table // time, avg_price
	Supply *ingestion.Table // day, locked, locked_pct, total
	APR    *ingestion.Table // day, rev_per_bal_locked
}

// BalancerTables are the normalized Balancer sub-tables.
type BalancerTables struct {
	Price  []domain.ProtocolRow
	Supply []domain.ProtocolRow
	APR    []domain.ProtocolRow
}

// ReadBalancerFiles reads the Balancer exports.
func ReadBalancerFiles(fsys fs.FS) (BalancerRaw, error) {
	var raw BalancerRaw
	var err error
	if raw.Price, err = ingestion.ReadFile(fsys, ingestion.BalancerPrice); err != nil {
		return BalancerRaw{}, err
	}
	if raw.Supply, err = ingestion.ReadFile(fsys, ingestion.BalancerSupply); err != nil {
		return BalancerRaw{}, err
	}
	if raw.APR, err = ingestion.ReadFile(fsys, ingestion.BalancerAPR); err != nil {
		return BalancerRaw{}, err
	}
	return raw, nil
}

// NormalizeBalancer derives circulating supply as total minus locked and the
// inflation of total supply. locked_pct is already a fraction.
func NormalizeBalancer(raw BalancerRaw) (BalancerTables, error) {
	var out BalancerTables
	var err error

	if out.Price, err = buildRows(raw.Price, "time", plain("avg_price", domain.FieldPrice)); err != nil {
		return BalancerTables{}, fmt.Errorf("normalize balancer price: %w", err)
	}

	out.Supply, err = buildRows(raw.Supply, "day",
		plain("locked", domain.FieldBondedSupply),
		plain("locked_pct", domain.FieldBondedPercent),
		plain("total", domain.FieldTotalSupply),
	)
	if err != nil {
		return BalancerTables{}, fmt.Errorf("normalize balancer supply: %w", err)
	}
	out.Supply = sortedUnique(out.Supply)
	CompleteSupply(out.Supply)
	PctChange(out.Supply, domain.FieldTotalSupply, domain.FieldInflation)

	if out.APR, err = buildRows(raw.APR, "day", plain("rev_per_bal_locked", domain.FieldAPR)); err != nil {
		return BalancerTables{}, fmt.Errorf("normalize balancer apr: %w", err)
	}
	return out, nil
}

// stakedBalance computes bonded tokens as gmx_s_total - gmx_u_total.
func stakedBalance(t *ingestion.Table) ([]domain.ProtocolRow, error) {
	cols, err := t.Columns("time_scale", "gmx_s_total", "gmx_u_total")
	if err != nil {
		return nil, err
	}
	rows := make([]domain.ProtocolRow, 0, t.Len())
	for i, raw := range cols[0] {
		if units.IsBlank(raw) {
			continue
		}
		d, err := ParseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, i+1, err)
		}
		staked, err := units.ParseFloat(cols[1][i])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, i+1, err)
		}
		unstaked, err := units.ParseFloat(cols[2][i])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, i+1, err)
		}
		row := domain.ProtocolRow{Date: d}
		if staked.Valid && unstaked.Valid {
			row.BondedSupply = null.FloatFrom(staked.Float64 - unstaked.Float64)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
