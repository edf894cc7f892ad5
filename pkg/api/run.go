package api

import (
	"maps"
	"slices"
	"time"
)

type (
	// RunStatus represents the current state of a run
	RunStatus string

	// TraceEntry records one node visit during a run
	TraceEntry struct {
		NodeID NodeID   `json:"node_id"`
		Type   NodeType `json:"type"`
	}

	// RunState is the complete state of one run of a flow, rebuilt from
	// its event trail. All mutation is copy-on-write so appliers never
	// alias shared maps or slices
	RunState struct {
		StartedAt   time.Time            `json:"started_at"`
		CompletedAt time.Time            `json:"completed_at,omitempty"`
		Request     *ApprovalRequest     `json:"request"`
		State       Args                 `json:"state"`
		Metadata    Metadata             `json:"metadata,omitempty"`
		Risk        *RiskResult          `json:"risk,omitempty"`
		Decisions   map[NodeID]*Decision `json:"decisions,omitempty"`
		Trace       []TraceEntry         `json:"trace"`
		RunID       RunID                `json:"run_id"`
		FlowID      FlowID               `json:"flow_id"`
		Tenant      Tenant               `json:"tenant,omitempty"`
		Status      RunStatus            `json:"status"`
		CurrentNode NodeID               `json:"current_node,omitempty"`
		FinalNode   NodeID               `json:"final_node,omitempty"`
		Error       string               `json:"error,omitempty"`
	}

	// RunResult is the caller-facing summary of a completed run. Field
	// names match the history tooling that consumes them
	RunResult struct {
		Risk          *RiskResult  `json:"ai_risk_result,omitempty"`
		Trace         []TraceEntry `json:"trace"`
		InstanceID    RunID        `json:"instance_id"`
		Status        RunStatus    `json:"status"`
		FinalNode     NodeID       `json:"final_node,omitempty"`
		FinalApprover string       `json:"final_approver,omitempty"`
		Suggestion    string       `json:"ai_suggestion,omitempty"`
		Error         string       `json:"error,omitempty"`
	}
)

const (
	RunPending   RunStatus = "pending"
	RunActive    RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SetStatus returns a new RunState with the updated status
func (st *RunState) SetStatus(s RunStatus) *RunState {
	res := *st
	res.Status = s
	return &res
}

// SetCurrentNode returns a new RunState positioned at the given node
func (st *RunState) SetCurrentNode(id NodeID) *RunState {
	res := *st
	res.CurrentNode = id
	return &res
}

// SetStartedAt returns a new RunState with the start timestamp set
func (st *RunState) SetStartedAt(t time.Time) *RunState {
	res := *st
	res.StartedAt = t
	return &res
}

// SetCompletedAt returns a new RunState with the completion timestamp set
func (st *RunState) SetCompletedAt(t time.Time) *RunState {
	res := *st
	res.CompletedAt = t
	return &res
}

// SetRequest returns a new RunState carrying the request being processed
func (st *RunState) SetRequest(req *ApprovalRequest) *RunState {
	res := *st
	res.Request = req
	return &res
}

// MergeState returns a new RunState with values merged into the
// accumulated state
func (st *RunState) MergeState(args Args) *RunState {
	res := *st
	res.State = st.State.Merge(args)
	return &res
}

// SetRisk returns a new RunState with the risk evaluation recorded
func (st *RunState) SetRisk(r *RiskResult) *RunState {
	res := *st
	res.Risk = r
	return &res
}

// SetDecision returns a new RunState with a decision recorded for a node
func (st *RunState) SetDecision(id NodeID, d *Decision) *RunState {
	res := *st
	res.Decisions = maps.Clone(st.Decisions)
	if res.Decisions == nil {
		res.Decisions = map[NodeID]*Decision{}
	}
	res.Decisions[id] = d
	return &res
}

// AppendTrace returns a new RunState with a node visit appended
func (st *RunState) AppendTrace(e TraceEntry) *RunState {
	res := *st
	res.Trace = append(slices.Clone(st.Trace), e)
	return &res
}

// SetFinalNode returns a new RunState with the terminal node recorded
func (st *RunState) SetFinalNode(id NodeID) *RunState {
	res := *st
	res.FinalNode = id
	return &res
}

// SetError returns a new RunState with the error message set
func (st *RunState) SetError(err string) *RunState {
	res := *st
	res.Error = err
	return &res
}

// IsTerminal returns true once a run can no longer progress
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Result summarizes the run for callers
func (st *RunState) Result() *RunResult {
	res := &RunResult{
		Risk:       st.Risk,
		Trace:      st.Trace,
		InstanceID: st.RunID,
		Status:     st.Status,
		FinalNode:  st.FinalNode,
		Error:      st.Error,
	}
	if st.State != nil {
		res.FinalApprover = st.State.GetString(ArgRecommendPath, "")
		res.Suggestion = st.State.GetString(ArgSuggestion, "")
	}
	return res
}

// Approved reports whether every recorded decision approved. Runs with
// no approve stages count as approved
func (st *RunState) Approved() bool {
	for _, d := range st.Decisions {
		if !d.Approved {
			return false
		}
	}
	return true
}
