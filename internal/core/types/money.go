// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panicking on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewMoneyFromInt creates a Money value from an integer amount.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// ZeroMoney returns the zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// ClampNonNegative returns m, or zero when m is negative.
// Customer balances are never allowed below zero: a payment or return that
// would overshoot the outstanding amount absorbs the difference.
func ClampNonNegative(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}
