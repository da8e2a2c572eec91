// Package core holds the closed sets, value types and validation rules of the ledger.
//
// This file contains Money and the parsing of currency amounts as typed by users
// or stored by spreadsheet tools.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount in centavos.
type Money struct {
	Cents int64
}

// ParseAmount converts a decimal string to Money with half-up rounding on the third decimal.
//
// Both separators are accepted: when a string contains both '.' and ',' the last one is the
// decimal separator and the other one groups thousands. A leading "R$" is ignored.
//
// Examples:
//
//	ParseAmount("12.34")    -> 1234
//	ParseAmount("12,34")    -> 1234
//	ParseAmount("1.234,50") -> 123450
//	ParseAmount("1000.0")   -> 100000
//	ParseAmount("12.345")   -> 1235
func ParseAmount(s string) (Money, error) {
	m, err := ParseStoredAmount(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	return m, nil
}

// ParseStoredAmount is ParseAmount without the sign check. Stored tables may carry
// negative legacy values, which are kept and flagged by Transaction.Validate.
func ParseStoredAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = normalizeSeparators(strings.TrimPrefix(s, "+"))

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

const maxCents = 1<<63 - 1

func normalizeSeparators(s string) string {
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		return strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// Decimal returns m as a decimal number of reais.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns m in reais for spreadsheet cells. Use Cents for arithmetic.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o. The result may be negative (a balance).
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// IsZero reports whether m is zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String formats m with two decimals and a dot separator ("1234.50", "-12.00").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// BRL formats m as "R$ 1234.50".
func (m Money) BRL() string {
	return "R$ " + m.String()
}
