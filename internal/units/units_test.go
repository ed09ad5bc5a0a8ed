package units

import (
	"errors"
	"math"
	"testing"

	"github.com/guregu/null/v6"
)

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"46.1%", 0.461},
		{"100%", 1.0},
		{" 7.25 % ", 0.0725},
		{"0%", 0},
		{"12", 0.12},
	}
	for _, tt := range tests {
		got, err := ParsePercent(tt.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%q: expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if _, err := ParsePercent("n/a%"); !errors.Is(err, ErrMalformedPercent) {
		t.Errorf("expected ErrMalformedPercent, got %v", err)
	}
}

func TestPercentColumn(t *testing.T) {
	got, err := PercentColumn([]string{"46.1%", "", "50"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got[0].Float64-0.461) > 1e-12 {
		t.Errorf("expected 0.461, got %v", got[0].Float64)
	}
	if got[1].Valid {
		t.Error("expected blank cell unset")
	}
	// A percentage column converts every cell, including ones written without '%'.
	if got[2].Float64 != 0.5 {
		t.Errorf("expected 0.5, got %v", got[2].Float64)
	}

	plain, err := PercentColumn([]string{"0.12", "0.13"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain[0].Float64 != 0.12 || plain[1].Float64 != 0.13 {
		t.Errorf("expected plain numbers untouched, got %v", plain)
	}

	if _, err := PercentColumn([]string{"10%", "abc"}); !errors.Is(err, ErrMalformedPercent) {
		t.Errorf("expected ErrMalformedPercent, got %v", err)
	}
}

func TestFromFixedPoint(t *testing.T) {
	if got := FromFixedPoint("1000000000000000000"); got.Float64 != 1.0 {
		t.Errorf("expected 1.0, got %v", got)
	}
	if got := FromFixedPoint("250000000000000000000000000"); got.Float64 != 250_000_000 {
		t.Errorf("expected 250000000, got %v", got.Float64)
	}
	if got := FromFixedPoint("not a number"); got.Valid {
		t.Errorf("expected unset, got %v", got)
	}
}

func TestMonthlyScaledAPRToAnnual(t *testing.T) {
	if got := MonthlyScaledAPRToAnnual(2400); got != 730.0 {
		t.Errorf("expected 730, got %v", got)
	}
}

func TestParseGroupedNumber(t *testing.T) {
	got, err := ParseGroupedNumber("1,234,567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Float64 != 1234567 {
		t.Errorf("expected 1234567, got %v", got.Float64)
	}
	if _, err := ParseGroupedNumber("12x"); !errors.Is(err, ErrMalformedNumber) {
		t.Errorf("expected ErrMalformedNumber, got %v", err)
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(null.FloatFrom(1), null.FloatFrom(4)); got.Float64 != 0.25 {
		t.Errorf("expected 0.25, got %v", got)
	}
	if got := Ratio(null.FloatFrom(1), null.FloatFrom(0)); got.Valid {
		t.Error("expected unset for zero denominator")
	}
	if got := Ratio(null.Float{}, null.FloatFrom(2)); got.Valid {
		t.Error("expected unset for unset numerator")
	}
}
