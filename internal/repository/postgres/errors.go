package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

// SQLSTATE codes this package translates.
const (
	codeUniqueViolation      = "23505"
	codeExclusionViolation   = "23P01"
	codeLockNotAvailable     = "55P03"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
)

// mapError translates driver errors into repository and domain errors,
// keeping the original in the chain.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure:
		return fmt.Errorf("%w: %v", repository.ErrLockTimeout, err)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s: %v", repository.ErrDuplicate, pqErr.Constraint, err)
	case codeExclusionViolation:
		return fmt.Errorf("%w: %v", domain.ErrRentalOverlap, err)
	}
	return err
}

// notFound turns sql.ErrNoRows into a domain not-found error.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	return mapError(err)
}
