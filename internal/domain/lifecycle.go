package domain

import (
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/statemachine"
)

var rentalTransitions = statemachine.Table[RentalStatus]{
	RentalStatusDraft:         {RentalStatusReserved, RentalStatusCancelled},
	RentalStatusReserved:      {RentalStatusActive, RentalStatusCancelled},
	RentalStatusActive:        {RentalStatusReturnPending},
	RentalStatusReturnPending: {RentalStatusClosed},
}

// rentalHandler lets an overdue rental move wherever an active one could,
// and keeps OVERDUE from ever being a target.
type rentalHandler struct{}

func (rentalHandler) CanTransition(from, to RentalStatus) statemachine.Verdict {
	if to == RentalStatusOverdue {
		return statemachine.Forbid
	}
	if from == RentalStatusOverdue {
		for _, t := range rentalTransitions[RentalStatusActive] {
			if t == to {
				return statemachine.Permit
			}
		}
		return statemachine.Forbid
	}
	return statemachine.Abstain
}

func (rentalHandler) OnTransition(from, to RentalStatus) error { return nil }

// terminationHandler additionally closes running rentals directly, which only
// an approved early termination may do.
type terminationHandler struct {
	rentalHandler
}

func (h terminationHandler) CanTransition(from, to RentalStatus) statemachine.Verdict {
	if to == RentalStatusClosed && (from == RentalStatusActive || from == RentalStatusOverdue) {
		return statemachine.Permit
	}
	return h.rentalHandler.CanTransition(from, to)
}

var (
	RentalLifecycle           = statemachine.New[RentalStatus](rentalTransitions, rentalHandler{})
	EarlyTerminationLifecycle = RentalLifecycle.WithHandler(terminationHandler{})
)

// TransitionTo moves the rental to target, evaluating from its effective
// status on the given day.
func (r *Rental) TransitionTo(target RentalStatus, today time.Time) error {
	return r.transition(RentalLifecycle, target, today)
}

// Terminate closes an active or overdue rental ahead of its end date.
func (r *Rental) Terminate(today time.Time) error {
	return r.transition(EarlyTerminationLifecycle, RentalStatusClosed, today)
}

func (r *Rental) transition(m *statemachine.Machine[RentalStatus], target RentalStatus, today time.Time) error {
	next, err := m.Transition(r.EffectiveStatus(today), target)
	if err != nil {
		return err
	}
	r.Status = next
	return nil
}
