package engine

import (
	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/util"
)

// StateTransitions maps states to their set of valid next states
type StateTransitions[T comparable] map[T]util.Set[T]

// runTransitions guards the status changes the walker may raise
var runTransitions = StateTransitions[api.RunStatus]{
	api.RunPending: util.SetOf(
		api.RunActive,
	),
	api.RunActive: util.SetOf(
		api.RunCompleted,
		api.RunFailed,
	),
	api.RunCompleted: {},
	api.RunFailed:    {},
}

// CanTransition returns whether transition from one state to another is
// valid
func (t StateTransitions[T]) CanTransition(from, to T) bool {
	allowed, ok := t[from]
	if !ok {
		return false
	}
	return allowed.Contains(to)
}

// IsTerminal returns true if the state has no valid transitions
func (t StateTransitions[T]) IsTerminal(state T) bool {
	allowed, ok := t[state]
	return ok && allowed.IsEmpty()
}
