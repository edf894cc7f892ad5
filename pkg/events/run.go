package events

import (
	"github.com/kode4food/timebox"

	"github.com/kode4food/signoff/pkg/api"
)

const RunPrefix = "run"

// RunAppliers contains the event applier functions for run events
var RunAppliers = makeRunAppliers()

// NewRunState creates an empty pending run state
func NewRunState() *api.RunState {
	return &api.RunState{
		State:  api.Args{},
		Status: api.RunPending,
	}
}

// RunKey returns the aggregate ID for a run
func RunKey[T ~string](runID T) timebox.AggregateID {
	return timebox.NewAggregateID(RunPrefix, timebox.ID(runID))
}

// IsRunEvent returns true if the event belongs to a run aggregate
func IsRunEvent(ev *timebox.Event) bool {
	return len(ev.AggregateID) >= 2 && ev.AggregateID[0] == RunPrefix
}

func makeRunAppliers() timebox.Appliers[*api.RunState] {
	return MakeAppliers(map[api.EventType]timebox.Applier[*api.RunState]{
		api.EventTypeRunStarted:       timebox.MakeApplier(runStarted),
		api.EventTypeNodeEntered:      timebox.MakeApplier(nodeEntered),
		api.EventTypeRiskEvaluated:    timebox.MakeApplier(riskEvaluated),
		api.EventTypeBranchTaken:      timebox.MakeApplier(branchTaken),
		api.EventTypeDecisionRecorded: timebox.MakeApplier(decisionRecorded),
		api.EventTypeNotificationQueued: timebox.MakeApplier(
			notificationQueued,
		),
		api.EventTypeRunCompleted: timebox.MakeApplier(runCompleted),
		api.EventTypeRunFailed:    timebox.MakeApplier(runFailed),
	})
}

func runStarted(
	_ *api.RunState, ev *timebox.Event, data api.RunStartedEvent,
) *api.RunState {
	return &api.RunState{
		RunID:     data.RunID,
		FlowID:    data.FlowID,
		Tenant:    data.Tenant,
		Status:    api.RunActive,
		Request:   data.Request,
		State:     data.Request.ToArgs(),
		Metadata:  data.Metadata,
		StartedAt: ev.Timestamp,
	}
}

func nodeEntered(
	st *api.RunState, _ *timebox.Event, data api.NodeEnteredEvent,
) *api.RunState {
	return st.
		SetCurrentNode(data.NodeID).
		AppendTrace(api.TraceEntry{NodeID: data.NodeID, Type: data.Type})
}

func riskEvaluated(
	st *api.RunState, _ *timebox.Event, data api.RiskEvaluatedEvent,
) *api.RunState {
	return st.
		SetRisk(data.Result).
		MergeState(data.Result.ToArgs())
}

func branchTaken(
	st *api.RunState, _ *timebox.Event, data api.BranchTakenEvent,
) *api.RunState {
	return st.SetCurrentNode(data.Target)
}

func decisionRecorded(
	st *api.RunState, _ *timebox.Event, data api.DecisionRecordedEvent,
) *api.RunState {
	return st.
		SetDecision(data.NodeID, data.Decision).
		MergeState(data.Merged)
}

func notificationQueued(
	st *api.RunState, _ *timebox.Event, _ api.NotificationQueuedEvent,
) *api.RunState {
	return st
}

func runCompleted(
	st *api.RunState, ev *timebox.Event, data api.RunCompletedEvent,
) *api.RunState {
	return st.
		SetStatus(api.RunCompleted).
		SetFinalNode(data.FinalNode).
		SetCompletedAt(ev.Timestamp)
}

func runFailed(
	st *api.RunState, ev *timebox.Event, data api.RunFailedEvent,
) *api.RunState {
	return st.
		SetStatus(api.RunFailed).
		SetError(data.Error).
		SetCompletedAt(ev.Timestamp)
}
