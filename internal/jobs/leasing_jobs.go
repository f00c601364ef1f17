package jobs

import (
	"context"
	"errors"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
)

// InvoiceBatchResult summarises one run of the monthly leasing invoice batch.
type InvoiceBatchResult struct {
	Period  domain.Period
	Issued  int
	Skipped int // already invoiced, or the lease started after the period
	Failed  []int32
}

// GenerateLeasingInvoices issues last month's invoice for every running lease.
// Reruns are safe: a period that is already invoiced is skipped.
func (jr *JobRunner) GenerateLeasingInvoices() {
	jr.runWithRecovery("GenerateLeasingInvoices", func(ctx context.Context) {
		period := domain.PeriodOf(jr.now()).Previous()
		result, err := jr.generateLeasingInvoices(ctx, period)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to list active leases", "error", err)
			return
		}
		logger.InfoContext(ctx, "Leasing invoices generated",
			"period", result.Period,
			"issued", result.Issued,
			"skipped", result.Skipped,
			"failed", len(result.Failed))
	})
}

func (jr *JobRunner) generateLeasingInvoices(ctx context.Context, period domain.Period) (*InvoiceBatchResult, error) {
	leases, err := jr.services.Leasing.ListActiveLeases(ctx)
	if err != nil {
		return nil, err
	}

	result := &InvoiceBatchResult{Period: period}
	periodStart := period.Start()
	periodEnd := periodStart.AddDate(0, 1, -1)

	for _, lease := range leases {
		if domain.DateOnly(lease.StartDate).After(periodEnd) {
			result.Skipped++
			continue
		}

		err := jr.issueWithRetry(ctx, lease.ID, period)
		switch {
		case err == nil:
			result.Issued++
		case errors.Is(err, domain.ErrDuplicateInvoice):
			result.Skipped++
		default:
			logger.ErrorContext(ctx, "Leasing invoice not issued", "rental_id", lease.ID, "period", period, "error", err)
			result.Failed = append(result.Failed, lease.ID)
		}
		if ctx.Err() != nil {
			return result, nil
		}
	}
	return result, nil
}

// issueWithRetry retries transient failures with exponential backoff.
// Domain errors are final.
func (jr *JobRunner) issueWithRetry(ctx context.Context, rentalID int32, period domain.Period) error {
	attempts := jr.config.Jobs.InvoiceRetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := jr.config.InvoiceRetryBackoff()
	start := period.Start()

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		_, err = jr.services.Leasing.GenerateLeasingInvoice(ctx, rentalID, start.Year(), start.Month(), nil)
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		logger.WarnContext(ctx, "Retrying leasing invoice", "rental_id", rentalID, "attempt", attempt, "error", err)
		if sleepErr := jr.sleep(ctx, backoff<<(attempt-1)); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

func retryable(err error) bool {
	for _, final := range []error{
		domain.ErrEntityNotFound,
		domain.ErrInvalidStateTransition,
		domain.ErrInvalidOperation,
		domain.ErrBusinessRuleViolation,
		domain.ErrInvalidInput,
		domain.ErrMissingBillingInput,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, final) {
			return false
		}
	}
	return true
}
