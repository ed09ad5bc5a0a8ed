// Package idhash computes deterministic identifiers for run artifacts.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"tokenomics-lab/internal/domain"
)

// ComputeDataVersion computes a deterministic digest of the consolidated rows
// using SHA256. Each row contributes one line:
// date|chain|price|circ|total|bonded|bonded_pct|apr|inflation|liquid|mcap|volume|reported_total|token
// Unset values are empty. Returns hex-encoded hash (64 characters).
func ComputeDataVersion(rows []domain.ChainRow) string {
	h := sha256.New()
	for i := range rows {
		r := &rows[i]
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%s|%s|%t|%s|%s|%s|%s\n",
			r.Date,
			r.Chain,
			floatKey(r.Price),
			floatKey(r.CircSupply),
			floatKey(r.TotalSupply),
			floatKey(r.BondedTokens),
			floatKey(r.BondedPercentage),
			floatKey(r.APR),
			floatKey(r.Inflation),
			r.HasLiquidStaking,
			floatKey(r.MarketCap),
			floatKey(r.Volume24h),
			floatKey(r.ReportedTotalSupply),
			strings.ReplaceAll(r.Token.ValueOrZero(), "|", `\|`),
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortVersion returns the first 12 characters of a data version.
func ShortVersion(version string) string {
	if len(version) <= 12 {
		return version
	}
	return version[:12]
}

func floatKey(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}
