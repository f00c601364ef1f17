package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money is an immutable amount in a single currency, always held at two
// decimal places rounded half-up.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount.Round(moneyScale), Currency: currency}
}

// MoneyOf parses a decimal string such as "1250.50".
func MoneyOf(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, InvalidInput("invalid amount %q", amount)
	}
	return NewMoney(d, currency), nil
}

// MustMoney is MoneyOf for literals known to be valid.
func MustMoney(amount string, currency string) Money {
	m, err := MoneyOf(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) sameCurrency(o Money) error {
	if m.Currency != o.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return nil
}

func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return NewMoney(m.Amount.Add(o.Amount), m.Currency), nil
}

func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return NewMoney(m.Amount.Sub(o.Amount), m.Currency), nil
}

func (m Money) Mul(factor decimal.Decimal) Money {
	return NewMoney(m.Amount.Mul(factor), m.Currency)
}

func (m Money) MulInt(n int64) Money {
	return m.Mul(decimal.NewFromInt(n))
}

// Div divides by a scalar. Division by zero is an invalid operation.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, InvalidOperation("division of %s by zero", m)
	}
	return NewMoney(m.Amount.DivRound(divisor, moneyScale), m.Currency), nil
}

func (m Money) GreaterThan(o Money) (bool, error) {
	if err := m.sameCurrency(o); err != nil {
		return false, err
	}
	return m.Amount.GreaterThan(o.Amount), nil
}

func (m Money) LessThan(o Money) (bool, error) {
	if err := m.sameCurrency(o); err != nil {
		return false, err
	}
	return m.Amount.LessThan(o.Amount), nil
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal compares value and currency; 10.5 and 10.50 are equal.
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

// ClampZero returns zero in the same currency when the amount is negative.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return Zero(m.Currency)
	}
	return m
}

func (m Money) String() string {
	return m.Amount.StringFixed(moneyScale) + " " + m.Currency
}
