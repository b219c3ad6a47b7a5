// Package format renders numbers the way the dashboard shows them: Brazilian
// thousands and decimal separators, currency symbol in front.
package format

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"ecomdash/internal/core"
)

var symbols = map[string]string{
	"BRL": "R$",
	"EUR": "€",
	"USD": "US$",
}

// Symbol returns the display symbol for an ISO currency code, or the code itself.
func Symbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// Currency formats m as "R$ 1.234,56".
func Currency(code string, m core.Money) string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := cents / 100
	rem := cents % 100
	return fmt.Sprintf("%s%s %s,%02d", sign, Symbol(code), Count(units), rem)
}

// Count formats an integer with dot thousands separators: 99280 -> "99.280".
func Count[T ~int | ~int64](n T) string {
	return humanize.FormatInteger("#.###,", int(n))
}

// Decimal formats f with two decimals: 4.0857 -> "4,09".
func Decimal(f float64) string {
	return humanize.FormatFloat("#.###,##", f)
}

// Percent formats a share in [0,1] as "42,10%".
func Percent(share float64) string {
	return Decimal(share*100) + "%"
}
