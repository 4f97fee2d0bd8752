// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

const (
	// MoneyPlaces is the number of fractional digits kept for monetary amounts.
	MoneyPlaces int32 = 2

	// QuantityPlaces is the number of fractional digits kept for quantities.
	QuantityPlaces int32 = 3
)

// Money represents a monetary value.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity represents a stock or line quantity.
type Quantity = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return RoundMoney(d), nil
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return RoundMoney(d)
}

// MustQuantity creates a Quantity from a string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return RoundQuantity(d)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney quantizes to 0.01, ties away from zero (ROUND_HALF_UP).
func RoundMoney(d decimal.Decimal) Money {
	return d.Round(MoneyPlaces)
}

// RoundQuantity quantizes to 0.001, ties away from zero.
func RoundQuantity(d decimal.Decimal) Quantity {
	return d.Round(QuantityPlaces)
}

// SumMoney adds already-rounded amounts and rounds the result.
func SumMoney(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return RoundMoney(total)
}

// MinQuantity returns the smaller of a and b.
func MinQuantity(a, b Quantity) Quantity {
	if a.LessThan(b) {
		return a
	}
	return b
}
