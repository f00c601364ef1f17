package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/billing"
	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

type leasingService struct {
	repos Repositories
	opts  Options
}

func NewLeasingService(repos Repositories, opts Options) LeasingService {
	return &leasingService{repos: repos, opts: opts.withDefaults()}
}

func (s *leasingService) now() time.Time {
	return s.opts.Now().UTC()
}

// runningLease loads a leasing rental under lock and checks that it is
// active or overdue.
func (s *leasingService) runningLease(ctx context.Context, rentalID int32) (*domain.Rental, error) {
	r, err := s.repos.Rentals.GetByIDForUpdate(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !r.IsLeasing() {
		return nil, domain.InvalidOperation("rental %d is a %s rental, not a lease", r.ID, r.Type)
	}
	status := r.EffectiveStatus(s.now())
	if status != domain.RentalStatusActive && status != domain.RentalStatusOverdue {
		return nil, domain.InvalidOperation("lease %d is %s", r.ID, status)
	}
	return r, nil
}

// RecordLeasingKm stores the odometer reading for the month of recordDate.
// The previous reading is the latest record, or the handover km for the
// first month.
func (s *leasingService) RecordLeasingKm(ctx context.Context, rentalID int32, currentKm int64, recordDate time.Time) (*domain.LeasingKmRecord, error) {
	logger.EnterMethod(ctx, "leasingService.RecordLeasingKm", "rentalID", rentalID, "currentKm", currentKm)

	var record *domain.LeasingKmRecord
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.runningLease(txCtx, rentalID)
		if err != nil {
			return err
		}
		if r.StartKm == nil {
			return fmt.Errorf("%w: lease %d has no start km", domain.ErrMissingBillingInput, r.ID)
		}
		terms, err := s.repos.Leasing.GetTerms(txCtx, r.ID)
		if err != nil {
			return err
		}

		period := domain.PeriodOf(recordDate)
		previous, err := s.repos.Leasing.LatestKmRecord(txCtx, r.ID)
		if err != nil {
			return err
		}
		if previous != nil {
			if previous.Period == period {
				return fmt.Errorf("%w: lease %d period %s", domain.ErrDuplicateKmRecord, r.ID, period)
			}
			if period < previous.Period {
				return domain.InvalidInput("period %s precedes the last recorded period %s", period, previous.Period)
			}
		}

		rec, err := billing.NewKmRecord(r.ID, period, recordDate, currentKm, terms, previous, *r.StartKm)
		if err != nil {
			return err
		}
		if err := s.repos.Leasing.CreateKmRecord(txCtx, rec); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%w: lease %d period %s", domain.ErrDuplicateKmRecord, r.ID, period)
			}
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "leasingService.RecordLeasingKm", err, "rentalID", rentalID)
		return nil, err
	}

	logger.ExitMethod(ctx, "leasingService.RecordLeasingKm", "rentalID", rentalID, "period", record.Period,
		"excessKm", record.ExcessKm, "rolloverToNext", record.RolloverToNext)
	return record, nil
}

// GenerateLeasingInvoice issues the monthly invoice of a period from its km
// record. A period is invoiced at most once; asking again fails with
// domain.ErrDuplicateInvoice and leaves the first invoice untouched.
func (s *leasingService) GenerateLeasingInvoice(ctx context.Context, rentalID int32, year int, month time.Month, additionalCharges *domain.Money) (*domain.Invoice, error) {
	period := domain.PeriodOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	logger.EnterMethod(ctx, "leasingService.GenerateLeasingInvoice", "rentalID", rentalID, "period", period)

	var invoice *domain.Invoice
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.repos.Rentals.GetByIDForUpdate(txCtx, rentalID)
		if err != nil {
			return err
		}
		if !r.IsLeasing() {
			return domain.InvalidOperation("rental %d is a %s rental, not a lease", r.ID, r.Type)
		}
		terms, err := s.repos.Leasing.GetTerms(txCtx, r.ID)
		if err != nil {
			return err
		}
		record, err := s.repos.Leasing.GetKmRecord(txCtx, r.ID, period)
		if errors.Is(err, domain.ErrEntityNotFound) {
			return domain.InvalidOperation("no km recorded for lease %d in %s", r.ID, period)
		}
		if err != nil {
			return err
		}

		inv, created, err := issueMonthlyInvoice(txCtx, s.repos, s.opts.InvoiceNumberPrefix, s.now(), r, terms, record, additionalCharges)
		if err != nil {
			return err
		}
		if !created {
			return fmt.Errorf("%w: lease %d period %s", domain.ErrDuplicateInvoice, r.ID, period)
		}
		invoice = inv
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "leasingService.GenerateLeasingInvoice", err, "rentalID", rentalID, "period", period)
		return nil, err
	}

	logger.ExitMethod(ctx, "leasingService.GenerateLeasingInvoice", "rentalID", rentalID,
		"invoiceNumber", invoice.InvoiceNumber, "total", invoice.Total)
	return invoice, nil
}

// issueMonthlyInvoice prices and stores the monthly invoice of the record's
// period. created is false when the period was already invoiced.
func issueMonthlyInvoice(ctx context.Context, repos Repositories, prefix string, now time.Time, r *domain.Rental,
	terms *domain.LeasingTerms, record *domain.LeasingKmRecord, additional *domain.Money) (*domain.Invoice, bool, error) {
	charge, err := billing.MonthlyInvoice(terms, record.ExcessKm, additional)
	if err != nil {
		return nil, false, err
	}
	number, err := nextNumber(ctx, repos.Sequences, invoiceSequence, prefix, now)
	if err != nil {
		return nil, false, err
	}
	inv := &domain.Invoice{
		InvoiceNumber:     number,
		RentalID:          r.ID,
		Type:              domain.InvoiceTypeLeasingMonthly,
		Period:            record.Period,
		MonthlyRent:       charge.MonthlyRent,
		ExcessKm:          charge.ExcessKm,
		ExcessKmCharge:    charge.ExcessKmCharge,
		AdditionalCharges: charge.AdditionalCharges,
		PenaltyAmount:     domain.Zero(r.Currency),
		Total:             charge.Total,
		Currency:          r.Currency,
		IssuedAt:          now,
	}
	created, err := repos.Invoices.Create(ctx, inv)
	if err != nil {
		return nil, false, err
	}
	return inv, created, nil
}

// uninvoicedKmRecords returns the recorded periods that have no monthly
// invoice yet.
func uninvoicedKmRecords(ctx context.Context, repos Repositories, rentalID int32) ([]domain.LeasingKmRecord, error) {
	records, err := repos.Leasing.ListKmRecords(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	invoices, err := repos.Invoices.ListByRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	invoiced := make(map[domain.Period]bool, len(invoices))
	for _, inv := range invoices {
		if inv.Type == domain.InvoiceTypeLeasingMonthly {
			invoiced[inv.Period] = true
		}
	}
	var open []domain.LeasingKmRecord
	for _, rec := range records {
		if !invoiced[rec.Period] {
			open = append(open, rec)
		}
	}
	return open, nil
}

func (s *leasingService) uninvoicedExcessKm(ctx context.Context, rentalID int32) (int64, error) {
	records, err := uninvoicedKmRecords(ctx, s.repos, rentalID)
	if err != nil {
		return 0, err
	}
	var excess int64
	for _, rec := range records {
		excess += rec.ExcessKm
	}
	return excess, nil
}

// RequestEarlyTermination quotes the penalty for ending a lease on
// terminationDate and files it for approval.
func (s *leasingService) RequestEarlyTermination(ctx context.Context, rentalID int32, terminationDate time.Time, reason string) (*domain.EarlyTermination, error) {
	logger.EnterMethod(ctx, "leasingService.RequestEarlyTermination", "rentalID", rentalID)

	var termination *domain.EarlyTermination
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.runningLease(txCtx, rentalID)
		if err != nil {
			return err
		}
		date := domain.DateOnly(terminationDate)
		if date.Before(r.StartDate) || date.After(r.EndDate) {
			return domain.InvalidInput("termination date %s is outside the lease %s",
				date.Format(domain.DateLayout), r.Period())
		}

		pending, err := s.repos.Leasing.PendingEarlyTermination(txCtx, r.ID)
		if err != nil {
			return err
		}
		if pending != nil {
			return fmt.Errorf("%w: request %d on lease %d", domain.ErrTerminationPending, pending.ID, r.ID)
		}

		terms, err := s.repos.Leasing.GetTerms(txCtx, r.ID)
		if err != nil {
			return err
		}
		remaining, err := billing.RemainingMonths(r.StartDate, terms.TermMonths, date)
		if err != nil {
			return err
		}
		excessKm, err := s.uninvoicedExcessKm(txCtx, r.ID)
		if err != nil {
			return err
		}
		charge, err := billing.EarlyTermination(terms, remaining, excessKm)
		if err != nil {
			return err
		}

		t := &domain.EarlyTermination{
			RentalID:                r.ID,
			Status:                  domain.EarlyTerminationPending,
			RequestedAt:             s.now(),
			TerminationDate:         date,
			Reason:                  reason,
			RemainingMonths:         charge.RemainingMonths,
			PenaltyAmount:           charge.Penalty,
			OutstandingExcessCharge: charge.OutstandingExcess,
			Total:                   charge.Total,
		}
		if err := s.repos.Leasing.CreateEarlyTermination(txCtx, t); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%w: lease %d", domain.ErrTerminationPending, r.ID)
			}
			return err
		}
		termination = t
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "leasingService.RequestEarlyTermination", err, "rentalID", rentalID)
		return nil, err
	}

	logger.ExitMethod(ctx, "leasingService.RequestEarlyTermination", "rentalID", rentalID,
		"terminationID", termination.ID, "total", termination.Total)
	return termination, nil
}

// repriceTermination refreshes the amounts of t from the km records and
// invoices as they stand now.
func (s *leasingService) repriceTermination(ctx context.Context, t *domain.EarlyTermination) error {
	terms, err := s.repos.Leasing.GetTerms(ctx, t.RentalID)
	if err != nil {
		return err
	}
	excessKm, err := s.uninvoicedExcessKm(ctx, t.RentalID)
	if err != nil {
		return err
	}
	charge, err := billing.EarlyTermination(terms, t.RemainingMonths, excessKm)
	if err != nil {
		return err
	}
	t.PenaltyAmount = charge.Penalty
	t.OutstandingExcessCharge = charge.OutstandingExcess
	t.Total = charge.Total
	return nil
}

func (s *leasingService) pendingTermination(ctx context.Context, id int32) (*domain.EarlyTermination, error) {
	t, err := s.repos.Leasing.GetEarlyTerminationForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsPending() {
		return nil, domain.InvalidOperation("early termination %d is already %s", t.ID, t.Status)
	}
	return t, nil
}

// ApproveEarlyTermination closes the lease on the termination date. The
// charge is priced again at approval so that periods invoiced since the
// request are not billed twice.
func (s *leasingService) ApproveEarlyTermination(ctx context.Context, id int32) (*domain.EarlyTermination, *domain.Invoice, error) {
	logger.EnterMethod(ctx, "leasingService.ApproveEarlyTermination", "terminationID", id)

	var (
		termination *domain.EarlyTermination
		invoice     *domain.Invoice
	)
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := s.pendingTermination(txCtx, id)
		if err != nil {
			return err
		}
		r, err := s.runningLease(txCtx, t.RentalID)
		if err != nil {
			return err
		}
		if err := s.repriceTermination(txCtx, t); err != nil {
			return err
		}
		now := s.now()
		if err := r.Terminate(now); err != nil {
			return err
		}

		number, err := nextNumber(txCtx, s.repos.Sequences, invoiceSequence, s.opts.InvoiceNumberPrefix, now)
		if err != nil {
			return err
		}
		inv := &domain.Invoice{
			InvoiceNumber:     number,
			RentalID:          r.ID,
			Type:              domain.InvoiceTypeEarlyTermination,
			Period:            domain.PeriodOf(t.TerminationDate),
			MonthlyRent:       domain.Zero(r.Currency),
			ExcessKmCharge:    t.OutstandingExcessCharge,
			AdditionalCharges: domain.Zero(r.Currency),
			PenaltyAmount:     t.PenaltyAmount,
			Total:             t.Total,
			Currency:          r.Currency,
			IssuedAt:          now,
		}
		created, err := s.repos.Invoices.Create(txCtx, inv)
		if err != nil {
			return err
		}
		if !created {
			return fmt.Errorf("%w: termination of lease %d", domain.ErrDuplicateInvoice, r.ID)
		}

		invoices, err := s.repos.Invoices.ListByRental(txCtx, r.ID)
		if err != nil {
			return err
		}
		total, err := billing.LeaseTotal(invoices, r.Currency)
		if err != nil {
			return err
		}
		extra := domain.Zero(r.Currency)
		returned := t.TerminationDate
		r.ActualReturnDate = &returned
		r.TotalPrice = &total
		r.ExtraKmCharge = &extra
		r.GrandTotal = &total
		r.ClosedAt = &now
		r.UpdatedAt = now
		if err := s.repos.Rentals.Update(txCtx, r); err != nil {
			return err
		}

		t.Status = domain.EarlyTerminationApproved
		t.DecidedAt = &now
		t.InvoiceID = &inv.ID
		if err := s.repos.Leasing.UpdateEarlyTermination(txCtx, t); err != nil {
			return err
		}
		termination, invoice = t, inv
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "leasingService.ApproveEarlyTermination", err, "terminationID", id)
		return nil, nil, err
	}

	logger.ExitMethod(ctx, "leasingService.ApproveEarlyTermination", "terminationID", id,
		"rentalID", termination.RentalID, "invoiceNumber", invoice.InvoiceNumber)
	return termination, invoice, nil
}

func (s *leasingService) RejectEarlyTermination(ctx context.Context, id int32) (*domain.EarlyTermination, error) {
	logger.EnterMethod(ctx, "leasingService.RejectEarlyTermination", "terminationID", id)

	var termination *domain.EarlyTermination
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := s.pendingTermination(txCtx, id)
		if err != nil {
			return err
		}
		now := s.now()
		t.Status = domain.EarlyTerminationRejected
		t.DecidedAt = &now
		if err := s.repos.Leasing.UpdateEarlyTermination(txCtx, t); err != nil {
			return err
		}
		termination = t
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "leasingService.RejectEarlyTermination", err, "terminationID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "leasingService.RejectEarlyTermination", "terminationID", id)
	return termination, nil
}

func (s *leasingService) ListActiveLeases(ctx context.Context) ([]domain.Rental, error) {
	return s.repos.Rentals.ListActiveByType(ctx, domain.RentalTypeLeasing)
}
