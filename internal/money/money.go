// Package money formats monetary amounts the way the shop displays them.
package money

import (
	"github.com/shopspring/decimal"
)

// Symbol is the fixed currency symbol shown on every amount.
const Symbol = "₱"

// Format renders an amount with the currency symbol and two decimals.
func Format(d decimal.Decimal) string {
	return Symbol + d.StringFixed(2)
}

// FormatNegative renders an amount as a deduction, e.g. "-₱40.00".
func FormatNegative(d decimal.Decimal) string {
	return "-" + Format(d.Abs())
}

// FromInt is a shorthand for whole-currency amounts.
func FromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// Float converts an amount to a JSON-friendly float for the backend wire format.
func Float(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
