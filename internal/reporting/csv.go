package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
)

// ChainRowsFile is the name of the consolidated output file.
const ChainRowsFile = "all_chains_data.csv"

// WriteChainRowsCSV writes rows under the output header. Unset values are
// empty cells and booleans are written as True or False.
func WriteChainRowsCSV(w io.Writer, rows []domain.ChainRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.OutputColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Date.String(),
			string(r.Chain),
			formatFloat(r.Price),
			formatFloat(r.CircSupply),
			formatFloat(r.TotalSupply),
			formatFloat(r.BondedTokens),
			formatFloat(r.BondedPercentage),
			formatFloat(r.APR),
			formatFloat(r.Inflation),
			formatBool(r.HasLiquidStaking),
			formatFloat(r.MarketCap),
			formatFloat(r.Volume24h),
			formatFloat(r.ReportedTotalSupply),
			r.Token.ValueOrZero(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s %s: %w", r.Chain, r.Date, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
