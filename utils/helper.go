package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

func NilIfEmpty[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// Quantize2 rounds a money amount to two decimal places, half away from
// zero. Ledger row amounts are quantized exactly once, at emission;
// downstream aggregation never re-rounds.
func Quantize2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// DateOnly normalizes a timestamp to its UTC calendar date at midnight.
// Ledger ordering and window math compare dates, not instants.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthStartsBetween returns the 1st of each month from start through end
// inclusive (both normalized to month starts).
func MonthStartsBetween(start, end time.Time) []time.Time {
	var months []time.Time
	cur := MonthStart(start)
	last := MonthStart(end)
	for !cur.After(last) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// ParseDateParam parses an optional YYYY-MM-DD query parameter.
func ParseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	t = DateOnly(t)
	return &t, nil
}

func ParseDecimal(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}
