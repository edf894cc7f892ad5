package api

import "time"

// Decision records the outcome of one approval stage. Countersign stages
// record one Decision per role plus a combined outcome on the node
type Decision struct {
	Role      Role      `json:"role"`
	Approver  string    `json:"approver"`
	Approved  bool      `json:"approved"`
	Comment   string    `json:"comment,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// ToArgs returns the flattened state values an approval stage merges
// into the run, keyed by role the way history records expect them
func (d *Decision) ToArgs() Args {
	role := Name(d.Role)
	return Args{
		role + "_approved": d.Approved,
		role + "_comment":  d.Comment,
		role + "_approver": d.Approver,
	}
}

// Combine resolves a countersign outcome from individual decisions.
// DecisionModeAll approves only when every decision approved;
// DecisionModeAny approves when at least one did
func Combine(mode DecisionMode, decisions []*Decision) bool {
	if len(decisions) == 0 {
		return false
	}
	approved := 0
	for _, d := range decisions {
		if d.Approved {
			approved++
		}
	}
	if mode == DecisionModeAny {
		return approved > 0
	}
	return approved == len(decisions)
}
