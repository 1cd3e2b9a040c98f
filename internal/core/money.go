// Package core provides money and date handling for the bookkeeping records.
//
// Amounts use shopspring/decimal and are serialised as plain JSON numbers
// (12.5, not "12.5"), matching what the web client sends.
package core

import (
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// AmountPtr returns a pointer to a copy of d.
func AmountPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// ParseAmount parses a decimal string such as "-12.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// SameAmount reports whether two optional amounts are numerically equal.
// Two nil amounts are equal.
func SameAmount(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
