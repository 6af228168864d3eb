// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits kept on line amounts and totals.
const MoneyScale int32 = 2

// NewMoneyFromInt creates a Money value from a whole rupiah amount.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// LineAmount returns unitPrice × quantity rounded to MoneyScale.
// A unit price derived from a lump-sum total (total / qty) multiplies back
// to exactly that total after rounding.
func LineAmount(unitPrice Money, quantity int) Money {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(MoneyScale)
}

// UnitPriceFromTotal splits a lump-sum total over quantity.
func UnitPriceFromTotal(total Money, quantity int) Money {
	if quantity <= 0 {
		return Zero()
	}
	return total.Div(decimal.NewFromInt(int64(quantity)))
}
