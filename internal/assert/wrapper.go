package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/pkg/api"
)

// Wrapper wraps testify assertions with approval-workflow helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 100 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus workflow-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    assert.New(t),
	}
}

// FlowValid asserts that a flow definition is valid
func (w *Wrapper) FlowValid(f *api.Flow) {
	w.Helper()
	w.NoError(f.Validate())
	w.NotEmpty(f.FlowID)
	w.NotNil(f.Start(), "flow should have a start node")
}

// FlowInvalid asserts that a flow definition is invalid and returns the
// validation error
func (w *Wrapper) FlowInvalid(f *api.Flow, expectedErrorContains string) error {
	w.Helper()
	err := f.Validate()
	w.Error(err)
	if err != nil && expectedErrorContains != "" {
		w.Contains(err.Error(), expectedErrorContains)
	}
	return err
}

// RunStatus asserts the status of a run
func (w *Wrapper) RunStatus(st *api.RunState, expected api.RunStatus) {
	w.Helper()
	w.Equal(expected, st.Status)
}

// RunHasState asserts that a run carries specific state keys
func (w *Wrapper) RunHasState(st *api.RunState, keys ...api.Name) {
	w.Helper()
	for _, key := range keys {
		_, ok := st.State[key]
		w.True(ok, "run should have state key: %s", key)
	}
}

// RunStateEquals asserts that a state key has the expected value
func (w *Wrapper) RunStateEquals(
	st *api.RunState, key api.Name, expected any,
) {
	w.Helper()
	val, ok := st.State[key]
	w.True(ok, "run should have state key: %s", key)
	w.Equal(expected, val)
}

// Visited asserts that a run's trace visited the given nodes in order
func (w *Wrapper) Visited(st *api.RunState, nodes ...api.NodeID) {
	w.Helper()
	visited := make([]api.NodeID, len(st.Trace))
	for i, entry := range st.Trace {
		visited[i] = entry.NodeID
	}
	w.Equal(nodes, visited)
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.MaxSteps > 0)
	w.True(cfg.EvalTimeout > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}

// EventuallyWithError runs a condition that returns an error until it
// succeeds or times out
func (w *Wrapper) EventuallyWithError(
	condition func() error, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		err := condition()
		if err == nil {
			return
		}
		lastErr = err
		time.Sleep(DefaultRetryInterval)
	}
	if lastErr != nil {
		w.Fail(msg+": last error: "+lastErr.Error(), args...)
		return
	}
	w.Fail(msg, args...)
}
