package billing

import (
	"testing"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leasingTerms() *domain.LeasingTerms {
	return &domain.LeasingTerms{
		RentalID:           1,
		MonthlyRent:        try("10000"),
		MonthlyKmAllowance: 2000,
		ExtraKmRate:        try("2.50"),
		TermMonths:         12,
		PenaltyRate:        decimal.RequireFromString("0.25"),
	}
}

func TestComputeKmUsage_Rollover(t *testing.T) {
	p1, err := ComputeKmUsage(10000, 11500, 2000, 0)
	require.NoError(t, err)
	assert.Equal(t, KmUsage{UsedKm: 1500, ExcessKm: 0, RolloverToNext: 500}, p1)

	p2, err := ComputeKmUsage(11500, 13800, 2000, p1.RolloverToNext)
	require.NoError(t, err)
	assert.Equal(t, KmUsage{UsedKm: 2300, ExcessKm: 0, RolloverToNext: 200}, p2)

	p3, err := ComputeKmUsage(13800, 16300, 2000, p2.RolloverToNext)
	require.NoError(t, err)
	assert.Equal(t, KmUsage{UsedKm: 2500, ExcessKm: 300, RolloverToNext: 0}, p3)

	_, err = ComputeKmUsage(16300, 16000, 2000, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewKmRecord(t *testing.T) {
	terms := leasingTerms()

	first, err := NewKmRecord(1, "2026-01", date("2026-01-31"), 51500, terms, nil, 50000)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), first.PreviousKm)
	assert.Equal(t, int64(1500), first.UsedKm)
	assert.Equal(t, int64(500), first.RolloverToNext)
	assert.Equal(t, int64(2000), first.MonthlyAllowance)

	second, err := NewKmRecord(1, "2026-02", date("2026-02-28"), 53800, terms, first, 50000)
	require.NoError(t, err)
	assert.Equal(t, int64(51500), second.PreviousKm)
	assert.Equal(t, int64(500), second.RolloverFromPrevious)
	assert.Equal(t, int64(0), second.ExcessKm)
	assert.Equal(t, int64(200), second.RolloverToNext)
}

func TestMonthlyInvoice(t *testing.T) {
	terms := leasingTerms()

	t.Run("Rent, excess and additional charges", func(t *testing.T) {
		extra := try("100")
		c, err := MonthlyInvoice(terms, 300, &extra)
		require.NoError(t, err)
		assert.True(t, c.ExcessKmCharge.Equal(try("750")))
		assert.True(t, c.Total.Equal(try("10850")))
	})

	t.Run("Rent only", func(t *testing.T) {
		c, err := MonthlyInvoice(terms, 0, nil)
		require.NoError(t, err)
		assert.True(t, c.Total.Equal(try("10000")))
		assert.True(t, c.AdditionalCharges.IsZero())
	})

	t.Run("Additional charge in another currency", func(t *testing.T) {
		extra := domain.MustMoney("100", "EUR")
		_, err := MonthlyInvoice(terms, 0, &extra)
		assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	})
}

func TestRemainingMonths(t *testing.T) {
	tests := []struct {
		name        string
		termination string
		expected    int
	}{
		{"Mid month counts as started", "2025-04-15", 8},
		{"On the month boundary", "2025-04-01", 9},
		{"Before start", "2024-12-20", 12},
		{"After term", "2026-02-01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := RemainingMonths(date("2025-01-01"), 12, date(tt.termination))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestEarlyTermination(t *testing.T) {
	c, err := EarlyTermination(leasingTerms(), 8, 100)
	require.NoError(t, err)
	assert.True(t, c.Penalty.Equal(try("20000")))
	assert.True(t, c.OutstandingExcess.Equal(try("250")))
	assert.True(t, c.Total.Equal(try("20250")))

	_, err = EarlyTermination(leasingTerms(), -1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLeaseTotal(t *testing.T) {
	invoices := []domain.Invoice{
		{InvoiceNumber: "INV-2026-000001", Total: try("10000")},
		{InvoiceNumber: "INV-2026-000002", Total: try("10750")},
	}
	total, err := LeaseTotal(invoices, "TRY")
	require.NoError(t, err)
	assert.True(t, total.Equal(try("20750")))

	empty, err := LeaseTotal(nil, "TRY")
	require.NoError(t, err)
	assert.True(t, empty.Equal(domain.Zero("TRY")))

	_, err = LeaseTotal([]domain.Invoice{{InvoiceNumber: "INV-2026-000003", Total: domain.MustMoney("5", "EUR")}}, "TRY")
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}
