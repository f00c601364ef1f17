// Package statemachine implements a table-driven finite state machine with a
// pluggable handler that can veto, force, or observe transitions.
package statemachine

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is matched by every *TransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError reports a move that is neither in the table nor permitted by the handler.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Verdict is a handler's opinion on a transition.
type Verdict int

const (
	// Abstain defers the decision to the transition table.
	Abstain Verdict = iota
	// Permit allows the move even when the table does not list it.
	Permit
	// Forbid rejects the move even when the table lists it.
	Forbid
)

// Table maps a state to the states reachable from it.
type Table[S comparable] map[S][]S

// Handler is consulted before the table on every transition.
type Handler[S comparable] interface {
	CanTransition(from, to S) Verdict
	OnTransition(from, to S) error
}

// NopHandler abstains on every move and has no side effects.
type NopHandler[S comparable] struct{}

func (NopHandler[S]) CanTransition(from, to S) Verdict { return Abstain }
func (NopHandler[S]) OnTransition(from, to S) error    { return nil }

// Machine evaluates transitions against a table and a handler. It holds no
// current state; callers pass the state they loaded and persist the result.
type Machine[S comparable] struct {
	table   Table[S]
	handler Handler[S]
}

// New builds a machine. A nil handler behaves like NopHandler.
func New[S comparable](table Table[S], handler Handler[S]) *Machine[S] {
	if handler == nil {
		handler = NopHandler[S]{}
	}
	return &Machine[S]{table: table, handler: handler}
}

// WithHandler returns a machine sharing the same table but a different handler.
func (m *Machine[S]) WithHandler(handler Handler[S]) *Machine[S] {
	return New(m.table, handler)
}

// Allowed reports whether from -> to would succeed, without running the side-effect hook.
func (m *Machine[S]) Allowed(from, to S) bool {
	switch m.handler.CanTransition(from, to) {
	case Permit:
		return true
	case Forbid:
		return false
	}
	return m.inTable(from, to)
}

// Transition validates from -> to, runs the handler hook and returns the new state.
func (m *Machine[S]) Transition(from, to S) (S, error) {
	if !m.Allowed(from, to) {
		return from, &TransitionError{From: fmt.Sprint(from), To: fmt.Sprint(to)}
	}
	if err := m.handler.OnTransition(from, to); err != nil {
		return from, err
	}
	return to, nil
}

// Targets lists the table's successors of a state.
func (m *Machine[S]) Targets(from S) []S {
	out := make([]S, len(m.table[from]))
	copy(out, m.table[from])
	return out
}

// IsTerminal reports whether the table lists no successor for a state.
func (m *Machine[S]) IsTerminal(state S) bool {
	return len(m.table[state]) == 0
}

// States returns every state that appears in the table, as a source or a target.
func (m *Machine[S]) States() []S {
	seen := make(map[S]bool)
	var out []S
	add := func(s S) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for from, targets := range m.table {
		add(from)
		for _, to := range targets {
			add(to)
		}
	}
	return out
}

func (m *Machine[S]) inTable(from, to S) bool {
	for _, t := range m.table[from] {
		if t == to {
			return true
		}
	}
	return false
}
