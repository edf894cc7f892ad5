package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// Decider obtains the outcome of one approval stage role. Decisions
	// arrive synchronously; interactive deployments put a task inbox
	// behind this interface
	Decider interface {
		Decide(context.Context, *DecisionRequest) (*api.Decision, error)
	}

	// DeciderFunc adapts a function to the Decider interface
	DeciderFunc func(context.Context, *DecisionRequest) (*api.Decision, error)

	// DecisionRequest carries what an approver sees when deciding
	DecisionRequest struct {
		Request  *api.ApprovalRequest
		State    api.Args
		RunID    api.RunID
		NodeID   api.NodeID
		Role     api.Role
		Approver string
	}

	// AutoDecider approves every stage with the stock comment for its
	// role. A request whose simulate_error names the stage's role is
	// rejected with the matching failure comment instead
	AutoDecider struct {
		clock Clock
	}
)

// CountersignRole marks the combined outcome of a countersign stage
const CountersignRole api.Role = "countersign"

var approveComments = map[api.Role]string{
	"manager": "同意，理由合理。",
	"finance": "预算充足，同意。",
	"ceo":     "同意采购，尽快执行。",
}

var roleTitles = map[api.Role]string{
	"manager": "主管",
	"finance": "财务",
	"ceo":     "总经理",
}

const defaultApproveComment = "同意。"

var _ Decider = (*AutoDecider)(nil)

func (fn DeciderFunc) Decide(
	ctx context.Context, req *DecisionRequest,
) (*api.Decision, error) {
	return fn(ctx, req)
}

func NewAutoDecider(clock Clock) *AutoDecider {
	if clock == nil {
		clock = time.Now
	}
	return &AutoDecider{clock: clock}
}

func (d *AutoDecider) Decide(
	_ context.Context, req *DecisionRequest,
) (*api.Decision, error) {
	decision := &api.Decision{
		Role:      req.Role,
		Approver:  req.Approver,
		DecidedAt: d.clock(),
	}
	if req.Request != nil && req.Request.SimulateError == req.Role {
		decision.Comment = FailureComment(req.Role)
		return decision, nil
	}
	decision.Approved = true
	decision.Comment = ApproveComment(req.Role)
	return decision, nil
}

// RoleTitle returns the title for a role as it appears in comments and
// alerts
func RoleTitle(role api.Role) string {
	if title, ok := roleTitles[role]; ok {
		return title
	}
	return string(role)
}

// ApproveComment returns the stock approval comment for a role
func ApproveComment(role api.Role) string {
	if comment, ok := approveComments[role]; ok {
		return comment
	}
	return defaultApproveComment
}

// FailureComment returns the comment recorded when a stage rejects
// through a simulated failure
func FailureComment(role api.Role) string {
	return fmt.Sprintf("%s审批异常！", RoleTitle(role))
}
