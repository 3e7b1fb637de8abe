package kernel

import (
	"fmt"

	"orderflow/internal/pkg/errs"
)

// Money is a value object representing a monetary amount in minor currency
// units (cents). Amounts are never negative; subtraction is intentionally not
// provided because order totals and captured payments only ever accumulate.
//
// The zero value is a valid zero amount, which keeps arithmetic over item
// collections straightforward.
//
// Example usage:
//
//	total := kernel.MustMoney(0)
//	for _, item := range items {
//	    total = total.Add(item.LineTotal())
//	}
//	if captured.GreaterOrEqual(total) {
//	    // order can be marked as paid
//	}
type Money struct {
	cents int64
}

// NewMoney creates a Money amount from minor units.
// Returns an error if the amount is negative.
func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause(
			"amount is invalid",
			fmt.Errorf("%d is negative", cents),
		)
	}
	return Money{cents: cents}, nil
}

// MustMoney creates a Money amount from minor units and panics on a negative
// amount. Intended for constants and tests.
func MustMoney(cents int64) Money {
	m, err := NewMoney(cents)
	if err != nil {
		panic(err)
	}
	return m
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return m.cents
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// MulInt returns the amount multiplied by a non-negative quantity.
func (m Money) MulInt(quantity int) Money {
	return Money{cents: m.cents * int64(quantity)}
}

// GreaterOrEqual reports whether m is at least as large as other.
func (m Money) GreaterOrEqual(other Money) bool {
	return m.cents >= other.cents
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsEqual compares two amounts for equality.
func (m Money) IsEqual(other Money) bool {
	return m.cents == other.cents
}

// String renders the amount as a decimal with two fraction digits, e.g. "12.50".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.cents/100, m.cents%100)
}
