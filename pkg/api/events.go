package api

import "time"

type (
	// RunStartedEvent is emitted when a run begins processing a request
	RunStartedEvent struct {
		Request  *ApprovalRequest `json:"request"`
		Metadata Metadata         `json:"metadata,omitempty"`
		RunID    RunID            `json:"run_id"`
		FlowID   FlowID           `json:"flow_id"`
		Tenant   Tenant           `json:"tenant,omitempty"`
	}

	// NodeEnteredEvent is emitted when the walker reaches a node
	NodeEnteredEvent struct {
		RunID  RunID    `json:"run_id"`
		NodeID NodeID   `json:"node_id"`
		Type   NodeType `json:"type"`
	}

	// RiskEvaluatedEvent is emitted when a risk evaluation completes
	RiskEvaluatedEvent struct {
		Result *RiskResult `json:"result"`
		RunID  RunID       `json:"run_id"`
		NodeID NodeID      `json:"node_id"`
	}

	// BranchTakenEvent is emitted when a branch condition selects a path
	BranchTakenEvent struct {
		RunID     RunID  `json:"run_id"`
		NodeID    NodeID `json:"node_id"`
		Target    NodeID `json:"target"`
		Condition string `json:"condition"`
	}

	// DecisionRecordedEvent is emitted when an approval stage decides
	DecisionRecordedEvent struct {
		Decision *Decision `json:"decision"`
		Merged   Args      `json:"merged,omitempty"`
		RunID    RunID     `json:"run_id"`
		NodeID   NodeID    `json:"node_id"`
	}

	// NotificationQueuedEvent is emitted when a notify node queues a
	// notification for dispatch
	NotificationQueuedEvent struct {
		RunID   RunID   `json:"run_id"`
		NodeID  NodeID  `json:"node_id"`
		Channel Channel `json:"channel"`
	}

	// RunCompletedEvent is emitted when a run reaches an end node
	RunCompletedEvent struct {
		RunID       RunID     `json:"run_id"`
		FinalNode   NodeID    `json:"final_node"`
		CompletedAt time.Time `json:"completed_at"`
	}

	// RunFailedEvent is emitted when a run cannot progress
	RunFailedEvent struct {
		RunID    RunID     `json:"run_id"`
		NodeID   NodeID    `json:"node_id,omitempty"`
		Error    string    `json:"error"`
		FailedAt time.Time `json:"failed_at"`
	}

	EventType string
)

const (
	EventTypeRunStarted         EventType = "run_started"
	EventTypeNodeEntered        EventType = "node_entered"
	EventTypeRiskEvaluated      EventType = "risk_evaluated"
	EventTypeBranchTaken        EventType = "branch_taken"
	EventTypeDecisionRecorded   EventType = "decision_recorded"
	EventTypeNotificationQueued EventType = "notification_queued"
	EventTypeRunCompleted       EventType = "run_completed"
	EventTypeRunFailed          EventType = "run_failed"
)
