package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
)

// KmUsage is the outcome of one leasing period.
type KmUsage struct {
	UsedKm         int64
	ExcessKm       int64
	RolloverToNext int64
}

// ComputeKmUsage charges excess only after this month's allowance and the
// rollover carried in are used up. Whatever remains of both carries forward.
func ComputeKmUsage(previousKm, currentKm, allowance, rolloverFrom int64) (KmUsage, error) {
	if currentKm < previousKm {
		return KmUsage{}, domain.InvalidInput("odometer %d is below the previous reading %d", currentKm, previousKm)
	}
	used := currentKm - previousKm
	available := allowance + rolloverFrom
	u := KmUsage{UsedKm: used}
	if used > available {
		u.ExcessKm = used - available
	} else {
		u.RolloverToNext = available - used
	}
	return u, nil
}

// NewKmRecord builds the immutable record for a period from the previous one.
// previous may be nil for the first period, in which case startKm is the
// reading at handover.
func NewKmRecord(rentalID int32, period domain.Period, recordDate time.Time, currentKm int64,
	terms *domain.LeasingTerms, previous *domain.LeasingKmRecord, startKm int64) (*domain.LeasingKmRecord, error) {
	previousKm, rolloverFrom := startKm, int64(0)
	if previous != nil {
		previousKm, rolloverFrom = previous.CurrentKm, previous.RolloverToNext
	}
	usage, err := ComputeKmUsage(previousKm, currentKm, terms.MonthlyKmAllowance, rolloverFrom)
	if err != nil {
		return nil, err
	}
	return &domain.LeasingKmRecord{
		RentalID:             rentalID,
		Period:               period,
		RecordDate:           domain.DateOnly(recordDate),
		CurrentKm:            currentKm,
		PreviousKm:           previousKm,
		UsedKm:               usage.UsedKm,
		MonthlyAllowance:     terms.MonthlyKmAllowance,
		ExcessKm:             usage.ExcessKm,
		RolloverFromPrevious: rolloverFrom,
		RolloverToNext:       usage.RolloverToNext,
	}, nil
}

// MonthlyCharge is the amount of a monthly leasing invoice.
type MonthlyCharge struct {
	MonthlyRent       domain.Money
	ExcessKm          int64
	ExcessKmCharge    domain.Money
	AdditionalCharges domain.Money
	Total             domain.Money
}

// MonthlyInvoice prices a period: rent, excess km at the contracted rate and
// any additional charges. additional may be nil.
func MonthlyInvoice(terms *domain.LeasingTerms, excessKm int64, additional *domain.Money) (MonthlyCharge, error) {
	if excessKm < 0 {
		excessKm = 0
	}
	c := MonthlyCharge{
		MonthlyRent:       terms.MonthlyRent,
		ExcessKm:          excessKm,
		ExcessKmCharge:    terms.ExtraKmRate.MulInt(excessKm).ClampZero(),
		AdditionalCharges: domain.Zero(terms.MonthlyRent.Currency),
	}
	if additional != nil {
		c.AdditionalCharges = additional.ClampZero()
	}

	total, err := c.MonthlyRent.Add(c.ExcessKmCharge)
	if err != nil {
		return MonthlyCharge{}, err
	}
	if c.Total, err = total.Add(c.AdditionalCharges); err != nil {
		return MonthlyCharge{}, err
	}
	return c, nil
}

// RemainingMonths is the number of contracted months not yet started on the
// termination date.
func RemainingMonths(start time.Time, termMonths int, terminationDate time.Time) (int, error) {
	if domain.DateOnly(terminationDate).Before(domain.DateOnly(start)) {
		return termMonths, nil
	}
	diff, err := CalculateDateDifference(start, terminationDate)
	if err != nil {
		return 0, err
	}
	elapsed := diff.Months
	if diff.Days > 0 {
		elapsed++
	}
	if remaining := termMonths - elapsed; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// TerminationCharge is the one-time amount due on early termination.
type TerminationCharge struct {
	RemainingMonths   int
	Penalty           domain.Money
	OutstandingExcess domain.Money
	Total             domain.Money
}

// EarlyTermination prices the penalty for the remaining months plus the
// excess km of periods that were recorded but never invoiced.
func EarlyTermination(terms *domain.LeasingTerms, remainingMonths int, uninvoicedExcessKm int64) (TerminationCharge, error) {
	if remainingMonths < 0 {
		return TerminationCharge{}, fmt.Errorf("%w: negative remaining months", domain.ErrInvalidInput)
	}
	penalty := terms.MonthlyRent.
		Mul(decimal.NewFromInt(int64(remainingMonths)).Mul(terms.PenaltyRate)).
		ClampZero()
	outstanding := terms.ExtraKmRate.MulInt(uninvoicedExcessKm).ClampZero()

	total, err := penalty.Add(outstanding)
	if err != nil {
		return TerminationCharge{}, err
	}
	return TerminationCharge{
		RemainingMonths:   remainingMonths,
		Penalty:           penalty,
		OutstandingExcess: outstanding,
		Total:             total,
	}, nil
}

// LeaseTotal sums the invoices issued for a lease. It is the amount a closed
// leasing rental reports as its total.
func LeaseTotal(invoices []domain.Invoice, currency string) (domain.Money, error) {
	total := domain.Zero(currency)
	for _, inv := range invoices {
		var err error
		if total, err = total.Add(inv.Total); err != nil {
			return domain.Money{}, fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, err)
		}
	}
	return total, nil
}
