// Package model defines the core data structures for cash flow projection.
package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CentPlaces is the precision every monetary value is held at.
const CentPlaces = 2

// Bounds on parsed amounts. Rounding rescales by the exponent, so an
// unbounded exponent makes a short string arbitrarily expensive.
const (
	maxMoneyLength        = 64
	maxMoneyScale         = 24
	maxMoneyIntegerDigits = 15
)

// RoundCents rounds to whole cents, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// ParseMoney parses a decimal string and rounds it to cents.
// An empty string parses as zero. Amounts of 10^15 or more, and those with
// more than 24 decimal places, are rejected.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if len(s) > maxMoneyLength {
		return decimal.Zero, fmt.Errorf("amount is longer than %d characters", maxMoneyLength)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", s)
	}
	exp := int(d.Exponent())
	if exp < -maxMoneyScale || exp > maxMoneyIntegerDigits || d.NumDigits()+exp > maxMoneyIntegerDigits {
		return decimal.Zero, fmt.Errorf("%q is out of range", s)
	}
	return RoundCents(d), nil
}
