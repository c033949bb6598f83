// Package core provides the betting ledger domain: transactions, money
// handling and the aggregations behind the running total and calendar.
//
// This file contains parsing of user-typed amounts and money formatting.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for empty, non-numeric, zero or negative input.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is a signed amount in cents.
type Money struct {
	Cents int64
}

// maxAmount bounds a single entry. Sums of amounts saturate rather than wrap,
// see Add.
var maxAmount = decimal.New(1, 9)

var (
	maxMoney = decimal.New(math.MaxInt64, 0)
	minMoney = decimal.New(math.MinInt64, 0)
)

// ParseAmount converts a user-typed magnitude to cents.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted and the
// value is rounded half-up to two decimals. Only positive values are valid.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,345") -> 1235
//	ParseAmount("0.004")  -> ErrInvalidAmount (rounds to zero)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !d.IsPositive() || d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// MoneyFromFloat converts a stored floating point amount to cents, rounding
// half away from zero.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}
	}
	d := decimal.NewFromFloat(f).Shift(2).Round(0)
	switch {
	case d.GreaterThan(maxMoney):
		return Money{Cents: math.MaxInt64}
	case d.LessThan(minMoney):
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: d.IntPart()}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Float returns the decimal value for display and document serialization.
// Use Cents for arithmetic.
func (m Money) Float() float64 {
	return decimal.New(m.Cents, -2).InexactFloat64()
}

func (m Money) Abs() Money {
	if m.Cents == math.MinInt64 {
		return Money{Cents: math.MaxInt64}
	}
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Add sums two amounts, clamping at the int64 range instead of wrapping.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

// String renders the amount with two decimals, e.g. "$12.34" or "-$5.00".
func (m Money) String() string {
	a := m.Abs().Cents
	s := "$" + strconv.FormatInt(a/100, 10) + "." + twoDigits(a%100)
	if m.Cents < 0 {
		return "-" + s
	}
	return s
}

// Whole renders the absolute amount rounded to whole units, as shown in
// calendar cells ("$13").
func (m Money) Whole() string {
	return "$" + decimal.New(m.Abs().Cents, -2).Round(0).String()
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
