// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing goes through shopspring/decimal
// so that no float rounding leaks into stored values.
package core

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// plainDecimal rejects signs and exponents before decimal sees the input.
var plainDecimal = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// ParseAmount converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is a
// valid amount; negative values, empty input and malformed numbers are not.
//
// Examples:
//
//	ParseAmount("250")    -> Money{Cents: 25000}, nil
//	ParseAmount("12,34")  -> Money{Cents: 1234}, nil
//	ParseAmount("12.345") -> Money{Cents: 1235}, nil
//	ParseAmount("-1")     -> Money{}, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !plainDecimal.MatchString(s) {
		return Money{}, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Format renders the amount with two decimals behind the given currency symbol.
func (m Money) Format(symbol string) string {
	if m.Cents < 0 {
		return "-" + symbol + m.Decimal().Neg().StringFixed(2)
	}
	return symbol + m.Decimal().StringFixed(2)
}

// String formats the amount in dollars, e.g. "$250.00".
func (m Money) String() string {
	return m.Format("$")
}
