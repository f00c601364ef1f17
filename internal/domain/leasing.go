package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeasingTerms are the commercial terms of a LEASING rental.
type LeasingTerms struct {
	RentalID           int32           `json:"rental_id"`
	MonthlyRent        Money           `json:"monthly_rent"`
	MonthlyKmAllowance int64           `json:"monthly_km_allowance"`
	ExtraKmRate        Money           `json:"extra_km_rate"`
	TermMonths         int             `json:"term_months"`
	PenaltyRate        decimal.Decimal `json:"penalty_rate"`
}

func (t *LeasingTerms) Validate() error {
	if !t.MonthlyRent.IsPositive() {
		return InvalidInput("monthly rent must be positive")
	}
	if t.MonthlyKmAllowance < 0 {
		return InvalidInput("monthly km allowance cannot be negative")
	}
	if t.ExtraKmRate.IsNegative() {
		return InvalidInput("extra km rate cannot be negative")
	}
	if t.TermMonths <= 0 {
		return InvalidInput("term must be at least one month")
	}
	if t.PenaltyRate.IsNegative() || t.PenaltyRate.GreaterThan(decimal.NewFromInt(1)) {
		return InvalidInput("penalty rate must be between 0 and 1")
	}
	return nil
}

// LeasingKmRecord is the odometer reading for one leasing month. There is at
// most one record per rental and period and records are never updated.
type LeasingKmRecord struct {
	ID                   int32     `json:"id"`
	RentalID             int32     `json:"rental_id"`
	Period               Period    `json:"period"`
	RecordDate           time.Time `json:"record_date"`
	CurrentKm            int64     `json:"current_km"`
	PreviousKm           int64     `json:"previous_km"`
	UsedKm               int64     `json:"used_km"`
	MonthlyAllowance     int64     `json:"monthly_allowance"`
	ExcessKm             int64     `json:"excess_km"`
	RolloverFromPrevious int64     `json:"rollover_from_previous"`
	RolloverToNext       int64     `json:"rollover_to_next"`
	CreatedAt            time.Time `json:"created_at"`
}

type EarlyTerminationStatus string

const (
	EarlyTerminationPending  EarlyTerminationStatus = "PENDING"
	EarlyTerminationApproved EarlyTerminationStatus = "APPROVED"
	EarlyTerminationRejected EarlyTerminationStatus = "REJECTED"
)

// EarlyTermination is a request to end a leasing rental before its term.
type EarlyTermination struct {
	ID                      int32                  `json:"id"`
	RentalID                int32                  `json:"rental_id"`
	Status                  EarlyTerminationStatus `json:"status"`
	RequestedAt             time.Time              `json:"requested_at"`
	TerminationDate         time.Time              `json:"termination_date"`
	Reason                  string                 `json:"reason"`
	RemainingMonths         int                    `json:"remaining_months"`
	PenaltyAmount           Money                  `json:"penalty_amount"`
	OutstandingExcessCharge Money                  `json:"outstanding_excess_charge"`
	Total                   Money                  `json:"total"`
	DecidedAt               *time.Time             `json:"decided_at,omitempty"`
	InvoiceID               *int32                 `json:"invoice_id,omitempty"`
}

func (t *EarlyTermination) IsPending() bool {
	return t.Status == EarlyTerminationPending
}
