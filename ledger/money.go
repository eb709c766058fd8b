// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrPrecision       = errors.New("amount has more decimal places than the currency allows")
	ErrAmountTooLarge  = errors.New("amount is too large")
)

// MaxMinor bounds any single amount, in minor units. Sums of many
// amounts stay far inside int64.
const MaxMinor int64 = 1_000_000_000_000_000

var maxMinor = decimal.NewFromInt(MaxMinor)

// Money is an exact amount expressed in the minor unit of its currency
// (cents for USD, paise for INR).
type Money struct {
	minor int64
	cur   string
}

// NewMoney returns minor units of currency cur.
func NewMoney(minor int64, cur string) Money {
	return Money{minor: minor, cur: cur}
}

// Zero returns a zero amount in cur.
func Zero(cur string) Money { return Money{cur: cur} }

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// FromDecimal converts a major-unit amount such as 12.50 to Money.
// It fails rather than rounding when d carries more digits than the
// currency's fraction.
func FromDecimal(d decimal.Decimal, cur string) (Money, error) {
	c := money.GetCurrency(cur)
	if c == nil {
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, cur)
	}
	shifted := d.Shift(int32(c.Fraction))
	if !shifted.IsInteger() {
		return Money{}, fmt.Errorf("%w: %s %s", ErrPrecision, d.String(), cur)
	}
	if shifted.Abs().GreaterThan(maxMinor) {
		return Money{}, fmt.Errorf("%w: %s %s", ErrAmountTooLarge, d.String(), cur)
	}
	return Money{minor: shifted.IntPart(), cur: cur}, nil
}

func (m Money) Minor() int64     { return m.minor }
func (m Money) Currency() string { return m.cur }
func (m Money) IsZero() bool     { return m.minor == 0 }
func (m Money) IsPositive() bool { return m.minor > 0 }
func (m Money) IsNegative() bool { return m.minor < 0 }
func (m Money) Neg() Money       { return Money{minor: -m.minor, cur: m.cur} }

func (m Money) Abs() Money {
	if m.minor < 0 {
		return m.Neg()
	}
	return m
}

func (m Money) Add(n Money) Money { return Money{minor: m.minor + n.minor, cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{minor: m.minor - n.minor, cur: cur(m, n)} }

func (m Money) Equal(n Money) bool { return m.minor == n.minor && m.cur == n.cur }

// Cmp compares m and n, returning -1, 0 or +1.
func (m Money) Cmp(n Money) int {
	cur(m, n)
	switch {
	case m.minor < n.minor:
		return -1
	case m.minor > n.minor:
		return 1
	}
	return 0
}

// Min returns the smaller of m and n.
func Min(m, n Money) Money {
	if m.Cmp(n) <= 0 {
		return m
	}
	return n
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minor, -int32(m.fraction()))
}

// String formats m with its currency symbol, e.g. "$12.50".
func (m Money) String() string {
	return money.New(m.minor, m.cur).Display()
}

// Split divides m into n parts that differ by at most one minor unit.
// Leftover units go to the first parts.
func (m Money) Split(n int) ([]Money, error) {
	parts, err := money.New(m.minor, m.cur).Split(n)
	if err != nil {
		return nil, err
	}
	return fromGoMoney(parts, m.cur), nil
}

// Allocate divides m proportionally to ratios. The parts always sum to m.
func (m Money) Allocate(ratios ...int) ([]Money, error) {
	parts, err := money.New(m.minor, m.cur).Allocate(ratios...)
	if err != nil {
		return nil, err
	}
	return fromGoMoney(parts, m.cur), nil
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display,omitempty"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.Decimal().StringFixed(int32(m.fraction())),
		Currency: m.cur,
		Display:  m.String(),
	})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", v.Amount, err)
	}
	parsed, err := FromDecimal(amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) fraction() int {
	if c := money.GetCurrency(m.cur); c != nil {
		return c.Fraction
	}
	return 2
}

func fromGoMoney(parts []*money.Money, cur string) []Money {
	out := make([]Money, len(parts))
	for i, p := range parts {
		out[i] = Money{minor: p.Amount(), cur: cur}
	}
	return out
}

// an empty currency adopts the other operand's.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + " != " + b.cur)
	}
	return a.cur
}
