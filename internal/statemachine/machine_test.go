package statemachine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type light string

const (
	red    light = "RED"
	green  light = "GREEN"
	yellow light = "YELLOW"
	off    light = "OFF"
)

var lights = Table[light]{
	red:    {green},
	green:  {yellow},
	yellow: {red},
}

type recordingHandler struct {
	verdicts map[[2]light]Verdict
	seen     [][2]light
	hookErr  error
}

func (h *recordingHandler) CanTransition(from, to light) Verdict {
	return h.verdicts[[2]light{from, to}]
}

func (h *recordingHandler) OnTransition(from, to light) error {
	h.seen = append(h.seen, [2]light{from, to})
	return h.hookErr
}

func TestMachine_TableOnly(t *testing.T) {
	m := New(lights, nil)

	t.Run("Listed move succeeds", func(t *testing.T) {
		next, err := m.Transition(red, green)
		require.NoError(t, err)
		assert.Equal(t, green, next)
	})

	t.Run("Unlisted move fails", func(t *testing.T) {
		next, err := m.Transition(red, yellow)
		require.Error(t, err)
		assert.Equal(t, red, next)
		assert.True(t, errors.Is(err, ErrInvalidTransition))

		var te *TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "RED", te.From)
		assert.Equal(t, "YELLOW", te.To)
	})

	t.Run("Unknown source state has no targets", func(t *testing.T) {
		assert.True(t, m.IsTerminal(off))
		assert.Empty(t, m.Targets(off))
		assert.False(t, m.Allowed(off, red))
	})
}

func TestMachine_HandlerOverridesTable(t *testing.T) {
	h := &recordingHandler{verdicts: map[[2]light]Verdict{
		{red, off}:   Permit,
		{red, green}: Forbid,
		{green, off}: Abstain,
	}}
	m := New(lights, h)

	t.Run("Permit beats a missing table entry", func(t *testing.T) {
		next, err := m.Transition(red, off)
		require.NoError(t, err)
		assert.Equal(t, off, next)
	})

	t.Run("Forbid beats a table entry", func(t *testing.T) {
		_, err := m.Transition(red, green)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Abstain falls back to the table", func(t *testing.T) {
		_, err := m.Transition(green, off)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		next, err := m.Transition(green, yellow)
		require.NoError(t, err)
		assert.Equal(t, yellow, next)
	})

	t.Run("Hook runs only for allowed moves", func(t *testing.T) {
		assert.Equal(t, [][2]light{{red, off}, {green, yellow}}, h.seen)
	})
}

func TestMachine_HookErrorAbortsTransition(t *testing.T) {
	hookErr := errors.New("hook failed")
	m := New(lights, &recordingHandler{hookErr: hookErr})

	next, err := m.Transition(yellow, red)
	assert.ErrorIs(t, err, hookErr)
	assert.Equal(t, yellow, next)
}

func TestMachine_States(t *testing.T) {
	m := New(lights, nil)
	assert.ElementsMatch(t, []light{red, green, yellow}, m.States())

	targets := m.Targets(red)
	targets[0] = off
	assert.Equal(t, []light{green}, m.Targets(red), "Targets must return a copy")
}
