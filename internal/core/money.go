// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents; decimal strings from the dataset are
// parsed exactly with shopspring/decimal before conversion.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney converts a decimal string such as "72.19" to Money, rounding
// half-up to the cent. An empty string (or "nan") is an absent value and
// parses to zero. Negative amounts are rejected.
//
// Examples:
//
//	ParseMoney("72.19")  -> 7219
//	ParseMoney("10.005") -> 1001
//	ParseMoney("")       -> 0
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return Money{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// DivInt divides the amount by n, rounding half away from zero to the cent.
// Division by zero or a negative n yields zero.
func (m Money) DivInt(n int) Money {
	if n <= 0 {
		return Money{}
	}
	q := decimal.NewFromInt(m.Cents).Div(decimal.NewFromInt(int64(n))).Round(0)
	return Money{Cents: q.IntPart()}
}

// Units returns the value in currency units as a float64 for display purposes.
// Note: Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}
