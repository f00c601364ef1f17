package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Rounding(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"10", "10.00"},
		{"10.005", "10.01"},
		{"10.004", "10.00"},
		{"-10.005", "-10.01"},
		{"0.125", "0.13"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := MoneyOf(tt.in, "TRY")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m.Amount.StringFixed(2))
		})
	}

	t.Run("Invalid amount", func(t *testing.T) {
		_, err := MoneyOf("12,50", "TRY")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney("100.10", "TRY")
	b := MustMoney("20.25", "TRY")
	c := MustMoney("0.33", "TRY")

	t.Run("Add is commutative", func(t *testing.T) {
		ab, err := a.Add(b)
		require.NoError(t, err)
		ba, err := b.Add(a)
		require.NoError(t, err)
		assert.True(t, ab.Equal(ba))
		assert.Equal(t, "120.35 TRY", ab.String())
	})

	t.Run("Add is associative", func(t *testing.T) {
		ab, _ := a.Add(b)
		left, err := ab.Add(c)
		require.NoError(t, err)
		bc, _ := b.Add(c)
		right, err := a.Add(bc)
		require.NoError(t, err)
		assert.True(t, left.Equal(right))
	})

	t.Run("Sub", func(t *testing.T) {
		d, err := b.Sub(a)
		require.NoError(t, err)
		assert.Equal(t, "-79.85 TRY", d.String())
		assert.True(t, d.IsNegative())
		assert.True(t, d.ClampZero().IsZero())
	})

	t.Run("Mul and Div round to cents", func(t *testing.T) {
		assert.Equal(t, "33.36 TRY", a.Mul(decimal.RequireFromString("0.3333")).String())
		assert.Equal(t, "500.50 TRY", a.MulInt(5).String())

		q, err := a.Div(decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.Equal(t, "33.37 TRY", q.String())
	})

	t.Run("Div by zero", func(t *testing.T) {
		_, err := a.Div(decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidOperation)
	})
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	try := MustMoney("10", "TRY")
	eur := MustMoney("10", "EUR")

	_, err := try.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	assert.True(t, errors.Is(err, ErrInvalidOperation))

	_, err = try.Sub(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = try.GreaterThan(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = try.LessThan(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_Equal(t *testing.T) {
	assert.True(t, MustMoney("10.5", "TRY").Equal(MustMoney("10.50", "TRY")))
	assert.False(t, MustMoney("10.5", "TRY").Equal(MustMoney("10.5", "EUR")))

	gt, err := MustMoney("10.51", "TRY").GreaterThan(MustMoney("10.5", "TRY"))
	require.NoError(t, err)
	assert.True(t, gt)
	assert.True(t, Zero("TRY").IsZero())
	assert.False(t, Zero("TRY").IsPositive())
}
