// Package core holds the domain types of the budget tracker and the
// validation rules that apply to them.
//
// This file contains the Money type: integer cents in memory, decimal
// numbers on the wire.
package core

import (
	"bytes"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents. Use cents for arithmetic; Decimal for display.
type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// NewMoney builds Money from a major-unit float such as 12.34.
// Intended for tests and literals; parse user input with ParseMoney.
func NewMoney(amount float64) Money {
	return Money{Cents: decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()}
}

// ParseMoney converts a decimal string to Money.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Fractions beyond
// cents are rounded half away from zero. Negative values are allowed here;
// callers decide whether the sign is valid for the field.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,345") -> 1235 cents
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return fromDecimal(d), nil
}

func fromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// SubFloor subtracts o and clamps the result at zero.
func (m Money) SubFloor(o Money) Money {
	c := m.Cents - o.Cents
	if c < 0 {
		c = 0
	}
	return Money{Cents: c}
}

// Percentage returns m as a percentage of total, or 0 when total is not positive.
func (m Money) Percentage(total Money) float64 {
	if total.Cents <= 0 {
		return 0
	}
	return float64(m.Cents*100) / float64(total.Cents)
}

// Float returns the amount in major units for notification payloads.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// MarshalJSON writes a plain JSON number such as 12.5.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	*m = fromDecimal(d)
	return nil
}
