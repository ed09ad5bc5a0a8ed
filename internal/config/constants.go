package config

import (
	"time"

	"tokenomics-lab/internal/domain"
)

// Historical window requested from the quote API.
var (
	WindowStart = time.Date(2023, 9, 2, 0, 0, 0, 0, time.UTC)
	WindowEnd   = time.Date(2024, 8, 29, 23, 59, 59, 0, time.UTC)
)

// QuoteInterval is the quote API sampling interval.
const QuoteInterval = "daily"

// DefaultWindow returns the fixed historical window of a run.
func DefaultWindow() domain.Window {
	return domain.Window{Start: WindowStart, End: WindowEnd, Interval: QuoteInterval}
}

// CoinMarketCap asset identifiers.
const (
	AssetOsmosis    = "12220"
	AssetAtom       = "3794"
	AssetDYDXNative = "28324" // dYdX chain token, quoted from the cutoff onwards
	AssetDYDXEth    = "11156" // ethDYDX, quoted before the cutoff
)

// DYDXCutoff is the first day served by the native dYdX asset.
var DYDXCutoff = domain.NewDate(2023, time.December, 12)

// Warehouse query settings.
const (
	DYDXValidatorDatabase = "dydx_mainnet"
	DYDXValidatorTable    = "dydx_validators"
)

// BondedSince is the first day included in warehouse bonded-token totals.
var BondedSince = domain.NewDate(2023, time.January, 1)
