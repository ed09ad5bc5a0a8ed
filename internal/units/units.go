// Package units converts raw source values into canonical numeric units.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// FixedPointDecimals is the number of decimals of on-chain token amounts.
const FixedPointDecimals = 18

var (
	// ErrMalformedPercent is returned when a percentage string cannot be parsed.
	ErrMalformedPercent = errors.New("malformed percentage")
	// ErrMalformedNumber is returned when a numeric string cannot be parsed.
	ErrMalformedNumber = errors.New("malformed number")
)

// ParsePercent converts "46.1%" to 0.461. The percent sign is optional.
func ParsePercent(s string) (float64, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimSpace(strings.TrimSuffix(v, "%"))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedPercent, s)
	}
	return f / 100, nil
}

// IsPercentColumn reports whether any value carries a percent sign.
func IsPercentColumn(values []string) bool {
	for _, v := range values {
		if strings.Contains(v, "%") {
			return true
		}
	}
	return false
}

// PercentColumn parses a column that may be written as percentages.
// When any cell contains '%', every non-empty cell is parsed as a
// percentage and divided by 100; otherwise cells are plain numbers.
// Empty cells stay unset.
func PercentColumn(values []string) ([]null.Float, error) {
	percent := IsPercentColumn(values)
	out := make([]null.Float, len(values))
	for i, v := range values {
		if IsBlank(v) {
			continue
		}
		if percent {
			f, err := ParsePercent(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			out[i] = null.FloatFrom(f)
			continue
		}
		f, err := ParseFloat(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// ParseFloat parses a plain number. Blank and NaN cells yield an unset value.
func ParseFloat(s string) (null.Float, error) {
	if IsBlank(s) {
		return null.Float{}, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return null.Float{}, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	if math.IsNaN(f) {
		return null.Float{}, nil
	}
	return null.FloatFrom(f), nil
}

// ParseGroupedNumber parses numbers written with thousands separators,
// e.g. "1,234,567" -> 1234567.
func ParseGroupedNumber(s string) (null.Float, error) {
	return ParseFloat(strings.ReplaceAll(s, ",", ""))
}

// FromFixedPoint scales an integer token amount with 18 decimals to whole
// tokens: "1000000000000000000" -> 1.0. Values that are not numeric coerce
// to unset.
func FromFixedPoint(s string) null.Float {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return null.Float{}
	}
	f, _ := d.Shift(-FixedPointDecimals).Float64()
	return null.FloatFrom(f)
}

// MonthlyScaledAPRToAnnual converts the Curve "daily_apy" figure to the
// published APR: (v / 1200) * 365. Existing exports use this exact formula.
func MonthlyScaledAPRToAnnual(v float64) float64 {
	return (v / 1200) * 365
}

// Ratio returns num/den, unset when either side is unset or den is zero.
func Ratio(num, den null.Float) null.Float {
	if !num.Valid || !den.Valid || den.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom(num.Float64 / den.Float64)
}

// IsBlank reports whether a cell holds no value ("", NaN, NaT, null).
func IsBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "nat", "null", "none":
		return true
	default:
		return false
	}
}
