// Package normalization turns raw per-source inputs into canonical
// per-protocol sub-tables.
package normalization

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tokenomics-lab/internal/domain"
)

// ErrMalformedDate is returned when a date cell matches no known layout.
var ErrMalformedDate = errors.New("malformed date")

// timestampLayouts are tried in order. Values without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700",
	"1/2/2006",
	"Jan 2, 2006",
}

// ParseTimestamp parses a date or timestamp cell and truncates it to the UTC day.
func ParseTimestamp(s string) (domain.Date, error) {
	v := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return domain.DateOf(t), nil
		}
	}
	return domain.Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}
