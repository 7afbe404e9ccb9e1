// Package money formats and totals ledger amounts as currency values using
// integer minor units, so summaries of large rupiah figures never drift.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// IDR is the reporting currency of OI workbooks.
const IDR = "IDR"

// Money represents a monetary value with currency.
// It wraps go-money for arithmetic and formatting and shopspring/decimal for conversions.
type Money struct {
	m *money.Money
}

// New creates Money from minor units (sen for IDR).
func New(minor int64, currencyCode string) *Money {
	return &Money{m: money.New(minor, currencyCode)}
}

// NewFromDecimal converts a decimal amount to minor units, rounding half away from zero.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	fraction := 2
	if c := money.GetCurrency(currencyCode); c != nil {
		fraction = c.Fraction
	}
	minor := amount.Mul(decimal.New(1, int32(fraction))).Round(0).IntPart()
	return New(minor, currencyCode)
}

// NewFromFloat goes through decimal so 12.345 becomes 1235 minor units, not 1234.
func NewFromFloat(amount float64, currencyCode string) *Money {
	return NewFromDecimal(decimal.NewFromFloat(amount), currencyCode)
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

func (m *Money) IsZero() bool     { return m.Amount() == 0 }
func (m *Money) IsNegative() bool { return m.Amount() < 0 }

// Add returns m + other. Both values must share a currency.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("add %s to %s: %w", other.Currency(), m.Currency(), err)
	}
	return &Money{m: sum}, nil
}

// Sum totals float amounts in one currency. Each value is rounded to minor units
// before adding.
func Sum(currencyCode string, values ...float64) *Money {
	total := Zero(currencyCode)
	for _, v := range values {
		// same currency, Add cannot fail
		total, _ = total.Add(NewFromFloat(v, currencyCode))
	}
	return total
}

// Display returns the amount with the currency's grapheme and separators, e.g. "Rp1.234,56".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return Zero(IDR).Display()
	}
	return m.m.Display()
}

// String returns the amount as a plain decimal string, e.g. "1234.56".
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(int32(m.fraction()))
}

func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.fraction()))
}

func (m *Money) fraction() int {
	if m == nil || m.m == nil {
		return 2
	}
	return m.m.Currency().Fraction
}

func (m *Money) MarshalJSON() ([]byte, error) {
	if m == nil || m.m == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{m.Amount(), m.Currency(), m.Display()})
}

// FormatIDR renders a ledger amount in rupiah, e.g. 1234567.891 as "Rp1.234.567,89".
func FormatIDR(v float64) string {
	return NewFromFloat(v, IDR).Display()
}
