// Package risk evaluates approval requests before they reach a human.
// The primary evaluator prompts an LLM and parses its labeled answer;
// wrappers add memoization and retries, and a heuristic evaluator serves
// deployments without an API key
package risk

import (
	"context"
	"fmt"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// Evaluator produces a risk assessment for an approval request
	Evaluator interface {
		Evaluate(context.Context, *EvalContext) (*api.RiskResult, error)
	}

	// EvalContext carries the request facts a risk evaluation considers
	EvalContext struct {
		Amount           float64
		Urgency          string
		ApplicantHistory string
		Tenant           api.Tenant
	}
)

const (
	UrgencyHigh   = "高"
	UrgencyNormal = "普通"

	// HistoryNone describes an applicant with no completed runs on file
	HistoryNone = "无历史记录"
)

// NewEvalContext builds an evaluation context from a request and a
// summary of the applicant's approval history
func NewEvalContext(req *api.ApprovalRequest, history string) *EvalContext {
	urgency := UrgencyNormal
	if req.Urgent {
		urgency = UrgencyHigh
	}
	if history == "" {
		history = HistoryNone
	}
	return &EvalContext{
		Amount:           req.Amount,
		Urgency:          urgency,
		ApplicantHistory: history,
		Tenant:           req.Tenant,
	}
}

// HistorySummary phrases an applicant's past record the way evaluator
// prompts expect it
func HistorySummary(total, rejected int) string {
	switch {
	case total == 0:
		return HistoryNone
	case rejected > 0:
		return fmt.Sprintf("有%d次违规记录", rejected)
	default:
		return fmt.Sprintf("已有%d条正常审批记录", total)
	}
}

// Args returns the context as state values, used to key memoized
// evaluations
func (ec *EvalContext) Args() api.Args {
	return api.Args{
		"amount":            ec.Amount,
		"urgency":           ec.Urgency,
		"applicant_history": ec.ApplicantHistory,
		"tenant":            string(ec.Tenant),
	}
}
