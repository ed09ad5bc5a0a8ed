package reporting

import (
	"fmt"
	"io"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"tokenomics-lab/internal/domain"
)

// ChainRowsParquetFile is the name of the Parquet copy of the output.
const ChainRowsParquetFile = "all_chains_data.parquet"

type chainRowRecord struct {
	Date                string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Chain               string   `parquet:"name=chain, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price               *float64 `parquet:"name=price, type=DOUBLE, repetitiontype=OPTIONAL"`
	CircSupply          *float64 `parquet:"name=circ_supply, type=DOUBLE, repetitiontype=OPTIONAL"`
	TotalSupply         *float64 `parquet:"name=total_supply, type=DOUBLE, repetitiontype=OPTIONAL"`
	BondedTokens        *float64 `parquet:"name=bonded_tokens, type=DOUBLE, repetitiontype=OPTIONAL"`
	BondedPercentage    *float64 `parquet:"name=bonded_percentage, type=DOUBLE, repetitiontype=OPTIONAL"`
	APR                 *float64 `parquet:"name=apr, type=DOUBLE, repetitiontype=OPTIONAL"`
	Inflation           *float64 `parquet:"name=inflation, type=DOUBLE, repetitiontype=OPTIONAL"`
	HasLiquidStaking    bool     `parquet:"name=has_liquid_staking, type=BOOLEAN"`
	MarketCap           *float64 `parquet:"name=market_cap, type=DOUBLE, repetitiontype=OPTIONAL"`
	Volume24h           *float64 `parquet:"name=volume_24h, type=DOUBLE, repetitiontype=OPTIONAL"`
	ReportedTotalSupply *float64 `parquet:"name=reported_total_supply, type=DOUBLE, repetitiontype=OPTIONAL"`
	Token               *string  `parquet:"name=token, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// WriteChainRowsParquet writes rows as a snappy-compressed Parquet file.
func WriteChainRowsParquet(w io.Writer, rows []domain.ChainRow) error {
	pw, err := writer.NewParquetWriterFromWriter(w, new(chainRowRecord), 1)
	if err != nil {
		return fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		rec := chainRowRecord{
			Date:                r.Date.String(),
			Chain:               string(r.Chain),
			Price:               r.Price.Ptr(),
			CircSupply:          r.CircSupply.Ptr(),
			TotalSupply:         r.TotalSupply.Ptr(),
			BondedTokens:        r.BondedTokens.Ptr(),
			BondedPercentage:    r.BondedPercentage.Ptr(),
			APR:                 r.APR.Ptr(),
			Inflation:           r.Inflation.Ptr(),
			HasLiquidStaking:    r.HasLiquidStaking,
			MarketCap:           r.MarketCap.Ptr(),
			Volume24h:           r.Volume24h.Ptr(),
			ReportedTotalSupply: r.ReportedTotalSupply.Ptr(),
			Token:               r.Token.Ptr(),
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return fmt.Errorf("write parquet row %s %s: %w", r.Chain, r.Date, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return nil
}
