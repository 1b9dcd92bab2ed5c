package domain

import (
	"fmt"
	"math"
)

// Money is an amount in minor currency units (euro cents). All arithmetic
// and comparison inside the engine happens on integers; conversion to and
// from decimal strings or floats is a boundary concern only.
type Money int64

// FromCents wraps an integer number of cents.
func FromCents(cents int64) Money {
	return Money(cents)
}

// FromFloat converts a decimal euro amount to Money, rounding half away
// from zero to the nearest cent.
func FromFloat(amount float64) Money {
	return Money(math.Round(amount * 100))
}

// Cents returns the raw integer cent value.
func (m Money) Cents() int64 {
	return int64(m)
}

// Float64 returns the decimal euro value. Display/serialization use only.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return m - other
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m == 0
}

// String formats the amount as a decimal string, e.g. "12.99" or "-0.05".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
