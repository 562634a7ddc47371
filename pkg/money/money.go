// Package money represents invoice totals as integer minor units with
// an ISO-4217 currency attached. It wraps go-money for arithmetic and
// formatting and shopspring/decimal for exact cents conversion, so
// per-invoice and per-vendor sums never pass through floats.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes seen on carrier invoices.
const (
	USD = "USD"
	EUR = "EUR"
)

// Money is a monetary value in a single currency. A nil *Money reads
// as zero and drops out of sums, so report code can fold rows into an
// unset running total without seeding it first.
type Money struct {
	m *money.Money
}

// New builds a Money from minor units (cents for USD).
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

// NewFromFloat builds a Money from a float amount in major units,
// rounding to the nearest minor unit. Prefer New or NewFromDecimal
// when the caller already has an exact value.
func NewFromFloat(amount float64, currencyCode string) *Money {
	return NewFromDecimal(decimal.NewFromFloat(amount), currencyCode)
}

// NewFromDecimal builds a Money from a decimal amount in major units,
// rounding half away from zero to the currency's minor unit. Unknown
// currency codes fall back to USD's two-digit fraction.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	cur := money.GetCurrency(currencyCode)
	if cur == nil {
		cur = money.GetCurrency(USD)
	}
	minor := amount.Mul(decimal.New(1, int32(cur.Fraction))).Round(0).IntPart()
	return New(minor, currencyCode)
}

// FromNullDecimal converts a parsed invoice amount to Money. Invalid
// amounts become zero so totals can accumulate rows that parsed without
// one, and a missing currency defaults to USD the way carrier invoices
// print their totals.
func FromNullDecimal(amount decimal.NullDecimal, currencyCode string) *Money {
	if currencyCode == "" {
		currencyCode = USD
	}
	if !amount.Valid {
		return Zero(currencyCode)
	}
	return NewFromDecimal(amount.Decimal, currencyCode)
}

// Zero returns a zero total in the given currency.
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the value in minor units. Nil reads as zero.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code, or "" for nil.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero reports whether the value is zero. Nil counts as zero.
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// Add returns the sum of two totals. A nil side drops out, which keeps
// running totals simple. Mixing currencies is an error.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: sum}, nil
}

// Display formats the value with its currency symbol and thousands
// separators, e.g. "$1,234.56". Nil renders as "$0.00".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return "$0.00"
	}
	return m.m.Display()
}

// String renders the bare decimal amount, e.g. "1234.56".
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().String()
}

// ToDecimal converts the value back to major units as an exact decimal.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	d := decimal.NewFromInt(m.m.Amount())
	return d.Div(decimal.New(1, int32(m.m.Currency().Fraction)))
}
