// Package types provides common type aliases and utilities.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quantity represents a stock quantity with full precision.
// Uses decimal.Decimal to avoid floating-point errors; maps to
// Postgres NUMERIC(18,4).
type Quantity = decimal.Decimal

// NewQuantity creates a Quantity from a float.
// WARNING: Use NewQuantityFromString for precise values.
func NewQuantity(f float64) Quantity {
	return decimal.NewFromFloat(f)
}

// NewQuantityFromString creates a Quantity from a string.
// This is the preferred method for exact values.
func NewQuantityFromString(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity creates a Quantity from a string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroQuantity returns zero Quantity value.
func ZeroQuantity() Quantity {
	return decimal.Zero
}

// BalanceTolerance is the maximum accepted divergence between a persisted
// closing balance and its formula-recomputed value (0.01).
var BalanceTolerance = decimal.New(1, -2)

// WithinTolerance reports whether a and b differ by at most BalanceTolerance.
func WithinTolerance(a, b Quantity) bool {
	return a.Sub(b).Abs().LessThanOrEqual(BalanceTolerance)
}

// DateOf truncates t to its UTC calendar date.
// Snapshot and queue keys are day-granular; every date stored or compared
// by the engine goes through this normalization.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
