package helpers

import (
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/signoff/pkg/api"
)

// NewTestFlow creates the expense approval flow used across tests. It
// exercises every node type: risk evaluation, a three-way amount branch,
// single and countersigned approvals, and a notify step
func NewTestFlow() *api.Flow {
	return &api.Flow{
		FlowID: "expense-approval",
		Nodes: []*api.Node{
			{ID: "start", Type: api.NodeTypeStart, Next: "risk_check"},
			{ID: "risk_check", Type: api.NodeTypeRiskEval, Next: "manager"},
			{
				ID:   "manager",
				Type: api.NodeTypeApprove,
				Role: "manager",
				Next: "amount_branch",
			},
			{
				ID:   "amount_branch",
				Type: api.NodeTypeBranch,
				Branches: []*api.Branch{
					{
						Condition: "amount < 10000",
						Next:      "finance",
					},
					{
						Condition: "amount >= 10000 && !urgent",
						Next:      "ceo",
					},
					{
						Condition: "amount >= 10000 && urgent",
						Next:      "parallel",
					},
				},
			},
			{
				ID:   "finance",
				Type: api.NodeTypeApprove,
				Role: "finance",
				Next: "notify",
			},
			{
				ID:   "ceo",
				Type: api.NodeTypeApprove,
				Role: "ceo",
				Next: "notify",
			},
			{
				ID:        "parallel",
				Type:      api.NodeTypeApprove,
				Approvers: []api.Role{"finance", "ceo"},
				Mode:      api.DecisionModeAll,
				Next:      "notify",
			},
			{ID: "notify", Type: api.NodeTypeNotify, Next: "end"},
			{ID: "end", Type: api.NodeTypeEnd},
		},
	}
}

// NewLinearFlow creates a minimal three node flow for tests that only need
// a straight path from start to end
func NewLinearFlow() *api.Flow {
	return &api.Flow{
		FlowID: "linear",
		Nodes: []*api.Node{
			{ID: "start", Type: api.NodeTypeStart, Next: "manager"},
			{
				ID:   "manager",
				Type: api.NodeTypeApprove,
				Role: "manager",
				Next: "end",
			},
			{ID: "end", Type: api.NodeTypeEnd},
		},
	}
}

// NewTestRequest creates the canonical urgent high-amount request
func NewTestRequest() *api.ApprovalRequest {
	return &api.ApprovalRequest{
		RequestID: "REQ001",
		User:      "张三",
		Amount:    12000,
		Reason:    "采购高性能服务器",
		Urgent:    true,
	}
}

// NewTestRequestWithID creates a request with a unique id for tests that
// run several requests side by side
func NewTestRequestWithID() *api.ApprovalRequest {
	req := NewTestRequest()
	req.RequestID = api.RequestID("REQ-" + uuid.New().String()[:8])
	return req
}

// NewTestRules creates rules with the default threshold and a named
// approver for each role
func NewTestRules() *api.Rules {
	return &api.Rules{
		AmountThreshold: 10000,
		Approvers: map[api.Role]string{
			"manager": "王经理",
			"finance": "李会计",
			"ceo":     "赵总",
		},
	}
}

// TestTime returns a fixed timestamp for tests that compare persisted
// records
func TestTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}
