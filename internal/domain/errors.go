package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/statemachine"
)

var (
	ErrEntityNotFound         = errors.New("entity not found")
	ErrInvalidStateTransition = statemachine.ErrInvalidTransition
	ErrInvalidOperation       = errors.New("invalid operation")
	ErrBusinessRuleViolation  = errors.New("business rule violation")
	ErrRentalOverlap          = errors.New("rental overlaps an existing booking")
	ErrInvalidInput           = errors.New("invalid input")

	ErrCurrencyMismatch = fmt.Errorf("%w: currency mismatch", ErrInvalidOperation)

	// ErrBookingConflict is returned when a booking lost the vehicle lock twice.
	ErrBookingConflict = errors.New("booking conflict, vehicle is being booked concurrently")

	// ErrMissingBillingInput marks a caller bug: billing was asked to price an
	// incomplete rental. It is never retried.
	ErrMissingBillingInput = errors.New("missing billing input")

	ErrDuplicateInvoice    = fmt.Errorf("%w: invoice already issued for period", ErrBusinessRuleViolation)
	ErrDuplicateKmRecord   = fmt.Errorf("%w: km already recorded for period", ErrBusinessRuleViolation)
	ErrRentalLimitReached  = fmt.Errorf("%w: personal customer already has an active rental", ErrBusinessRuleViolation)
	ErrDriverUnavailable   = fmt.Errorf("%w: driver already assigned to an open rental", ErrBusinessRuleViolation)
	ErrCustomerBlacklisted = fmt.Errorf("%w: customer is blacklisted", ErrBusinessRuleViolation)
	ErrUnknownBranch       = fmt.Errorf("%w: branch does not exist", ErrBusinessRuleViolation)
	ErrTerminationPending  = fmt.Errorf("%w: early termination already requested", ErrBusinessRuleViolation)
)

var businessErrors = []error{
	ErrEntityNotFound,
	ErrInvalidStateTransition,
	ErrInvalidOperation,
	ErrInvalidInput,
	ErrBusinessRuleViolation,
	ErrRentalOverlap,
	ErrBookingConflict,
}

// IsBusinessError reports whether err is an expected outcome of a request
// rather than a fault.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     any
}

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}

// RentalOverlapError carries the vehicle and the range that is already booked.
type RentalOverlapError struct {
	VehicleID           int32
	Start               time.Time
	End                 time.Time
	ConflictingRentalID int32
}

func (e *RentalOverlapError) Error() string {
	return fmt.Sprintf("vehicle %d is already booked from %s to %s by rental %d",
		e.VehicleID, e.Start.Format(DateLayout), e.End.Format(DateLayout), e.ConflictingRentalID)
}

func (e *RentalOverlapError) Is(target error) bool {
	return target == ErrRentalOverlap
}

// InvalidOperation wraps ErrInvalidOperation with a reason.
func InvalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// InvalidInput wraps ErrInvalidInput with a reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
