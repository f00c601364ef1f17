package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

func leasingTerms() *domain.LeasingTerms {
	return &domain.LeasingTerms{
		RentalID:           21,
		MonthlyRent:        try("10000"),
		MonthlyKmAllowance: 2000,
		ExtraKmRate:        try("2.50"),
		TermMonths:         12,
		PenaltyRate:        decimal.RequireFromString("0.25"),
	}
}

func lease(status domain.RentalStatus) *domain.Rental {
	return &domain.Rental{
		ID:              21,
		RentalNumber:    "RNT-2025-000021",
		Type:            domain.RentalTypeLeasing,
		Status:          status,
		VehicleID:       7,
		CustomerID:      2,
		PrimaryDriverID: 3,
		StartDate:       day("2025-01-01"),
		EndDate:         day("2025-12-31"),
		StartKm:         km(50000),
		DailyPrice:      try("400"),
		Discount:        try("0"),
		Currency:        "TRY",
	}
}

func TestLeasingService_RecordLeasingKm(t *testing.T) {
	ctx := context.Background()

	t.Run("First month starts from the handover km", func(t *testing.T) {
		f := newFixture(day("2025-01-31"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
		f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
		f.leasing.On("LatestKmRecord", mock.Anything, int32(21)).Return(nil, nil)
		f.leasing.On("CreateKmRecord", mock.Anything, mock.Anything).Return(nil)

		rec, err := f.leasingSvc.RecordLeasingKm(ctx, 21, 51500, day("2025-01-31"))
		require.NoError(t, err)
		assert.Equal(t, domain.Period("2025-01"), rec.Period)
		assert.Equal(t, int64(50000), rec.PreviousKm)
		assert.Equal(t, int64(1500), rec.UsedKm)
		assert.Equal(t, int64(500), rec.RolloverToNext)
	})

	t.Run("Rollover is used before excess", func(t *testing.T) {
		f := newFixture(day("2025-02-28"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
		f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
		f.leasing.On("LatestKmRecord", mock.Anything, int32(21)).Return(&domain.LeasingKmRecord{
			RentalID: 21, Period: "2025-01", CurrentKm: 51500, UsedKm: 1500, MonthlyAllowance: 2000, RolloverToNext: 500,
		}, nil)
		f.leasing.On("CreateKmRecord", mock.Anything, mock.Anything).Return(nil)

		rec, err := f.leasingSvc.RecordLeasingKm(ctx, 21, 53800, day("2025-02-28"))
		require.NoError(t, err)
		assert.Equal(t, int64(2300), rec.UsedKm)
		assert.Equal(t, int64(500), rec.RolloverFromPrevious)
		assert.Equal(t, int64(0), rec.ExcessKm)
		assert.Equal(t, int64(200), rec.RolloverToNext)
	})

	t.Run("Same period twice", func(t *testing.T) {
		f := newFixture(day("2025-02-28"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
		f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
		f.leasing.On("LatestKmRecord", mock.Anything, int32(21)).
			Return(&domain.LeasingKmRecord{RentalID: 21, Period: "2025-02", CurrentKm: 53800}, nil)

		_, err := f.leasingSvc.RecordLeasingKm(ctx, 21, 54000, day("2025-02-28"))
		assert.ErrorIs(t, err, domain.ErrDuplicateKmRecord)
		assert.ErrorIs(t, err, domain.ErrBusinessRuleViolation)
		f.leasing.AssertNotCalled(t, "CreateKmRecord", mock.Anything, mock.Anything)
	})

	t.Run("Concurrent duplicate caught by the store", func(t *testing.T) {
		f := newFixture(day("2025-01-31"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
		f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
		f.leasing.On("LatestKmRecord", mock.Anything, int32(21)).Return(nil, nil)
		f.leasing.On("CreateKmRecord", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

		_, err := f.leasingSvc.RecordLeasingKm(ctx, 21, 51500, day("2025-01-31"))
		assert.ErrorIs(t, err, domain.ErrDuplicateKmRecord)
	})

	t.Run("Term rentals have no km records", func(t *testing.T) {
		f := newFixture(day("2026-01-12"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(11)).Return(dailyRental(domain.RentalStatusActive), nil)

		_, err := f.leasingSvc.RecordLeasingKm(ctx, 11, 51500, day("2026-01-12"))
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("Lease not started", func(t *testing.T) {
		f := newFixture(day("2024-12-20"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusReserved), nil)

		_, err := f.leasingSvc.RecordLeasingKm(ctx, 21, 50000, day("2024-12-20"))
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})
}

func TestLeasingService_GenerateLeasingInvoice(t *testing.T) {
	ctx := context.Background()
	extras := try("150")

	f := newFixture(time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC))
	f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
	f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
	f.leasing.On("GetKmRecord", mock.Anything, int32(21), domain.Period("2025-02")).
		Return(&domain.LeasingKmRecord{RentalID: 21, Period: "2025-02", ExcessKm: 100}, nil)
	f.sequences.On("Next", mock.Anything, "invoice", 2025).Return(int64(4), nil).Once()
	f.sequences.On("Next", mock.Anything, "invoice", 2025).Return(int64(5), nil).Once()
	f.invoices.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Invoice).ID = 40 }).
		Return(true, nil).Once()
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(false, nil).Once()

	first, err := f.leasingSvc.GenerateLeasingInvoice(ctx, 21, 2025, time.February, &extras)
	require.NoError(t, err)
	assert.Equal(t, int32(40), first.ID)
	assert.Equal(t, "INV-2025-000004", first.InvoiceNumber)
	assert.Equal(t, domain.Period("2025-02"), first.Period)
	assert.Equal(t, "250.00 TRY", first.ExcessKmCharge.String())
	assert.Equal(t, "10400.00 TRY", first.Total.String())

	second, err := f.leasingSvc.GenerateLeasingInvoice(ctx, 21, 2025, time.February, &extras)
	assert.Nil(t, second)
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoice)
	assert.ErrorIs(t, err, domain.ErrBusinessRuleViolation)
	assert.Equal(t, "10400.00 TRY", first.Total.String())
	f.invoices.AssertNumberOfCalls(t, "Create", 2)
}

func TestLeasingService_GenerateLeasingInvoice_NoKmRecord(t *testing.T) {
	f := newFixture(day("2025-03-01"))
	f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
	f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
	f.leasing.On("GetKmRecord", mock.Anything, int32(21), domain.Period("2025-02")).
		Return(nil, domain.NotFound("km record", "2025-02"))

	_, err := f.leasingSvc.GenerateLeasingInvoice(context.Background(), 21, 2025, time.February, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLeasingService_RequestEarlyTermination(t *testing.T) {
	ctx := context.Background()
	records := []domain.LeasingKmRecord{
		{RentalID: 21, Period: "2025-01", ExcessKm: 0},
		{RentalID: 21, Period: "2025-02", ExcessKm: 100},
		{RentalID: 21, Period: "2025-03", ExcessKm: 40},
	}
	invoices := []domain.Invoice{
		{RentalID: 21, Type: domain.InvoiceTypeLeasingMonthly, Period: "2025-01", Total: try("10000")},
		{RentalID: 21, Type: domain.InvoiceTypeLeasingMonthly, Period: "2025-02", Total: try("10250")},
	}

	t.Run("Quote", func(t *testing.T) {
		f := newFixture(day("2025-04-10"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
		f.leasing.On("PendingEarlyTermination", mock.Anything, int32(21)).Return(nil, nil)
		f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
		f.leasing.On("ListKmRecords", mock.Anything, int32(21)).Return(records, nil)
		f.invoices.On("ListByRental", mock.Anything, int32(21)).Return(invoices, nil)
		f.leasing.On("CreateEarlyTermination", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { args.Get(1).(*domain.EarlyTermination).ID = 3 }).
			Return(nil)

		term, err := f.leasingSvc.RequestEarlyTermination(ctx, 21, day("2025-04-15"), "relocating")
		require.NoError(t, err)
		assert.Equal(t, int32(3), term.ID)
		assert.Equal(t, domain.EarlyTerminationPending, term.Status)
		assert.Equal(t, 8, term.RemainingMonths)
		assert.Equal(t, "20000.00 TRY", term.PenaltyAmount.String())
		assert.Equal(t, "100.00 TRY", term.OutstandingExcessCharge.String())
		assert.Equal(t, "20100.00 TRY", term.Total.String())
	})

	t.Run("One pending request per lease", func(t *testing.T) {
		f := newFixture(day("2025-04-10"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
		f.leasing.On("PendingEarlyTermination", mock.Anything, int32(21)).
			Return(&domain.EarlyTermination{ID: 3, RentalID: 21, Status: domain.EarlyTerminationPending}, nil)

		_, err := f.leasingSvc.RequestEarlyTermination(ctx, 21, day("2025-04-15"), "")
		assert.ErrorIs(t, err, domain.ErrTerminationPending)
		f.leasing.AssertNotCalled(t, "CreateEarlyTermination", mock.Anything, mock.Anything)
	})

	t.Run("Date outside the lease", func(t *testing.T) {
		f := newFixture(day("2025-04-10"))
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)

		_, err := f.leasingSvc.RequestEarlyTermination(ctx, 21, day("2026-02-01"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func pendingTermination() *domain.EarlyTermination {
	return &domain.EarlyTermination{
		ID:                      3,
		RentalID:                21,
		Status:                  domain.EarlyTerminationPending,
		TerminationDate:         day("2025-04-15"),
		RemainingMonths:         8,
		PenaltyAmount:           try("20000"),
		OutstandingExcessCharge: try("100"),
		Total:                   try("20100"),
	}
}

func TestLeasingService_ApproveEarlyTermination(t *testing.T) {
	ctx := context.Background()

	t.Run("Closes the lease", func(t *testing.T) {
		f := newFixture(day("2025-04-12"))
		f.leasing.On("GetEarlyTerminationForUpdate", mock.Anything, int32(3)).Return(pendingTermination(), nil)
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
		f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
		f.leasing.On("ListKmRecords", mock.Anything, int32(21)).Return([]domain.LeasingKmRecord{
			{RentalID: 21, Period: "2025-01", ExcessKm: 0},
			{RentalID: 21, Period: "2025-02", ExcessKm: 40},
		}, nil)
		f.sequences.On("Next", mock.Anything, "invoice", 2025).Return(int64(7), nil)
		f.invoices.On("Create", mock.Anything, mock.MatchedBy(func(inv *domain.Invoice) bool {
			return inv.Type == domain.InvoiceTypeEarlyTermination && inv.Period == "2025-04"
		})).
			Run(func(args mock.Arguments) { args.Get(1).(*domain.Invoice).ID = 31 }).
			Return(true, nil)
		f.invoices.On("ListByRental", mock.Anything, int32(21)).Return([]domain.Invoice{
			{Type: domain.InvoiceTypeLeasingMonthly, Period: "2025-01", Total: try("10000")},
			{Type: domain.InvoiceTypeEarlyTermination, Period: "2025-04", Total: try("20100")},
		}, nil)
		var closed *domain.Rental
		f.rentals.On("Update", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { closed = args.Get(1).(*domain.Rental) }).
			Return(nil)
		f.leasing.On("UpdateEarlyTermination", mock.Anything, mock.Anything).Return(nil)

		term, inv, err := f.leasingSvc.ApproveEarlyTermination(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.EarlyTerminationApproved, term.Status)
		assert.Equal(t, int32(31), *term.InvoiceID)
		assert.Equal(t, "INV-2025-000007", inv.InvoiceNumber)
		assert.Equal(t, "20000.00 TRY", inv.PenaltyAmount.String())

		require.NotNil(t, closed)
		assert.Equal(t, domain.RentalStatusClosed, closed.Status)
		assert.Equal(t, day("2025-04-15"), *closed.ActualReturnDate)
		assert.Equal(t, "30100.00 TRY", closed.GrandTotal.String())
	})

	t.Run("Period invoiced after the request is not billed again", func(t *testing.T) {
		f := newFixture(day("2025-04-12"))
		f.leasing.On("GetEarlyTerminationForUpdate", mock.Anything, int32(3)).Return(pendingTermination(), nil)
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusActive), nil)
		f.leasing.On("GetTerms", mock.Anything, int32(21)).Return(leasingTerms(), nil)
		f.leasing.On("ListKmRecords", mock.Anything, int32(21)).Return([]domain.LeasingKmRecord{
			{RentalID: 21, Period: "2025-01", ExcessKm: 0},
			{RentalID: 21, Period: "2025-02", ExcessKm: 40},
		}, nil)
		f.invoices.On("ListByRental", mock.Anything, int32(21)).Return([]domain.Invoice{
			{Type: domain.InvoiceTypeLeasingMonthly, Period: "2025-01", Total: try("10000")},
			{Type: domain.InvoiceTypeLeasingMonthly, Period: "2025-02", Total: try("10100")},
			{Type: domain.InvoiceTypeEarlyTermination, Period: "2025-04", Total: try("20000")},
		}, nil)
		f.sequences.On("Next", mock.Anything, "invoice", 2025).Return(int64(8), nil)
		f.invoices.On("Create", mock.Anything, mock.MatchedBy(func(inv *domain.Invoice) bool {
			return inv.Type == domain.InvoiceTypeEarlyTermination
		})).Return(true, nil)
		var closed *domain.Rental
		f.rentals.On("Update", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { closed = args.Get(1).(*domain.Rental) }).
			Return(nil)
		f.leasing.On("UpdateEarlyTermination", mock.Anything, mock.Anything).Return(nil)

		term, inv, err := f.leasingSvc.ApproveEarlyTermination(ctx, 3)
		require.NoError(t, err)
		assert.True(t, inv.ExcessKmCharge.IsZero())
		assert.Equal(t, "20000.00 TRY", inv.PenaltyAmount.String())
		assert.Equal(t, "20000.00 TRY", inv.Total.String())
		assert.True(t, term.OutstandingExcessCharge.IsZero())
		assert.Equal(t, "20000.00 TRY", term.Total.String())

		require.NotNil(t, closed)
		assert.Equal(t, "40100.00 TRY", closed.GrandTotal.String())
	})

	t.Run("Already decided", func(t *testing.T) {
		f := newFixture(day("2025-04-12"))
		decided := pendingTermination()
		decided.Status = domain.EarlyTerminationRejected
		f.leasing.On("GetEarlyTerminationForUpdate", mock.Anything, int32(3)).Return(decided, nil)

		_, _, err := f.leasingSvc.ApproveEarlyTermination(ctx, 3)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("Lease already returned", func(t *testing.T) {
		f := newFixture(day("2025-04-12"))
		f.leasing.On("GetEarlyTerminationForUpdate", mock.Anything, int32(3)).Return(pendingTermination(), nil)
		f.rentals.On("GetByIDForUpdate", mock.Anything, int32(21)).Return(lease(domain.RentalStatusReturnPending), nil)

		_, _, err := f.leasingSvc.ApproveEarlyTermination(ctx, 3)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
		f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestLeasingService_RejectEarlyTermination(t *testing.T) {
	f := newFixture(day("2025-04-12"))
	f.leasing.On("GetEarlyTerminationForUpdate", mock.Anything, int32(3)).Return(pendingTermination(), nil)
	f.leasing.On("UpdateEarlyTermination", mock.Anything, mock.MatchedBy(func(t *domain.EarlyTermination) bool {
		return t.Status == domain.EarlyTerminationRejected && t.DecidedAt != nil
	})).Return(nil)

	term, err := f.leasingSvc.RejectEarlyTermination(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, domain.EarlyTerminationRejected, term.Status)
	f.leasing.AssertExpectations(t)
}
