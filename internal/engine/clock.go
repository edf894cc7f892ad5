package engine

import "time"

// Clock provides the current time for run timestamps and decisions
type Clock func() time.Time

// Now returns the current wall time from the engine's configured clock
func (e *Engine) Now() time.Time {
	return e.clock()
}
