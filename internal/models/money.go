package models

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a currency amount kept as an exact decimal. It serializes as a
// JSON number with two decimals.
type Money struct {
	d decimal.Decimal
}

// Decoded amounts are bounded so that comparing them never rescales into
// huge integers.
const (
	maxAmountBytes  = 32
	maxAmountDigits = 18
	minAmountExp    = -10
	maxAmountExp    = 18
)

// MsgAmountOutOfRange is the user-facing text for ErrAmountOutOfRange.
const MsgAmountOutOfRange = "Amounts must be plain numbers with at most 18 digits."

// ErrAmountOutOfRange is returned when a decoded amount is too long or too
// precise.
var ErrAmountOutOfRange = errors.New("amount out of range")

// Zero is the zero amount.
var Zero = Money{}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money { return Money{d: d} }

// MoneyFromString parses a decimal string such as "12.99".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustMoney is MoneyFromString for constants; it panics on bad input.
func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromInt builds a whole-dollar amount.
func MoneyFromInt(v int64) Money { return Money{d: decimal.NewFromInt(v)} }

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Mul(qty int) Money { return Money{d: m.d.Mul(decimal.NewFromInt(int64(qty)))} }

// Round2 rounds half away from zero to cents. All amounts handled here are
// non-negative, where this is plain half-up rounding.
func (m Money) Round2() Money { return Money{d: m.d.Round(2)} }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String renders the amount with two decimals.
func (m Money) String() string { return m.d.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a quoted numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		m.d = decimal.Zero
		return nil
	}
	if len(b) > maxAmountBytes {
		return ErrAmountOutOfRange
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	if exp := d.Exponent(); exp < minAmountExp || exp > maxAmountExp {
		return ErrAmountOutOfRange
	}
	if c := d.Coefficient(); len(c.Abs(c).String()) > maxAmountDigits {
		return ErrAmountOutOfRange
	}
	m.d = d
	return nil
}
