package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kode4food/signoff/internal/assert"
	"github.com/kode4food/signoff/internal/assert/helpers"
	"github.com/kode4food/signoff/internal/engine"
	"github.com/kode4food/signoff/pkg/api"
)

func TestAutoDeciderApproves(t *testing.T) {
	as := assert.New(t)
	decider := engine.NewAutoDecider(helpers.TestTime)

	for role, comment := range map[api.Role]string{
		"manager": "同意，理由合理。",
		"finance": "预算充足，同意。",
		"ceo":     "同意采购，尽快执行。",
		"auditor": "同意。",
	} {
		decision, err := decider.Decide(context.Background(),
			&engine.DecisionRequest{
				Request:  helpers.NewTestRequest(),
				Role:     role,
				Approver: "王经理",
			},
		)
		as.NoError(err)
		as.True(decision.Approved)
		as.Equal(role, decision.Role)
		as.Equal("王经理", decision.Approver)
		as.Equal(comment, decision.Comment)
		as.Equal(helpers.TestTime(), decision.DecidedAt)
	}
}

func TestAutoDeciderSimulatedFailure(t *testing.T) {
	as := assert.New(t)
	decider := engine.NewAutoDecider(nil)
	req := helpers.NewTestRequest()
	req.SimulateError = "finance"

	decision, err := decider.Decide(context.Background(),
		&engine.DecisionRequest{Request: req, Role: "finance"},
	)
	as.NoError(err)
	as.False(decision.Approved)
	as.Equal("财务审批异常！", decision.Comment)
	as.False(decision.DecidedAt.IsZero())

	decision, err = decider.Decide(context.Background(),
		&engine.DecisionRequest{Request: req, Role: "manager"},
	)
	as.NoError(err)
	as.True(decision.Approved)
}

func TestDeciderFunc(t *testing.T) {
	as := assert.New(t)
	boom := errors.New("approver offline")
	decider := engine.DeciderFunc(func(
		_ context.Context, _ *engine.DecisionRequest,
	) (*api.Decision, error) {
		return nil, boom
	})

	_, err := decider.Decide(context.Background(), &engine.DecisionRequest{})
	as.ErrorIs(err, boom)
}

func TestRoleComments(t *testing.T) {
	as := assert.New(t)

	as.Equal("主管", engine.RoleTitle("manager"))
	as.Equal("财务", engine.RoleTitle("finance"))
	as.Equal("总经理", engine.RoleTitle("ceo"))
	as.Equal("auditor", engine.RoleTitle("auditor"))

	as.Equal("同意，理由合理。", engine.ApproveComment("manager"))
	as.Equal("同意。", engine.ApproveComment("auditor"))

	as.Equal("主管审批异常！", engine.FailureComment("manager"))
	as.Equal("auditor审批异常！", engine.FailureComment("auditor"))
}
