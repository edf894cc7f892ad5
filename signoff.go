// Package signoff is an event-sourced approval workflow engine. Flows
// are declared as directed graphs of typed nodes; the engine walks a
// request through risk evaluation, branching, approval stages, and
// notification fan-out, recording every transition as an event so a
// run can be rebuilt, audited, or archived later.
package signoff

const (
	// Name identifies the service in logs and archive metadata
	Name = "signoff"

	// Version reports the engine release
	Version = "0.3.0"
)
