package risk

import (
	"context"
	"strings"

	"github.com/kode4food/signoff/pkg/api"
)

// HeuristicEvaluator grades requests against the rules threshold without
// calling a model. It backs deployments with no API key and keeps tests
// off the network
type HeuristicEvaluator struct {
	rules *api.Rules
}

const (
	PathAutoApprove   = "自动通过"
	PathFinanceReview = "财务审批"
	PathManagerReview = "经理审批"

	suggestLow        = "金额较小，历史正常，可自动通过。"
	suggestMedium     = "金额中等，建议财务复核。"
	suggestHigh       = "金额较大，建议经理重点关注。"
	suggestHighMarked = "建议经理重点关注，金额较大且申请人有违规历史。"

	historyViolation = "违规"
)

// NewHeuristicEvaluator builds an evaluator graded against the provided
// rules. Nil rules use the default threshold
func NewHeuristicEvaluator(rules *api.Rules) *HeuristicEvaluator {
	return &HeuristicEvaluator{rules: rules}
}

// Evaluate grades the request amount against the rules threshold. Twice
// the threshold is high risk, at or above it is medium, below is low
func (h *HeuristicEvaluator) Evaluate(
	_ context.Context, ec *EvalContext,
) (*api.RiskResult, error) {
	threshold := h.rules.Threshold()
	switch {
	case ec.Amount >= 2*threshold:
		return &api.RiskResult{
			Risk:          api.RiskHigh,
			RecommendPath: PathManagerReview,
			Suggestion:    h.highSuggestion(ec),
		}, nil
	case ec.Amount >= threshold:
		return &api.RiskResult{
			Risk:          api.RiskMedium,
			RecommendPath: PathFinanceReview,
			Suggestion:    suggestMedium,
		}, nil
	default:
		return &api.RiskResult{
			Risk:          api.RiskLow,
			RecommendPath: PathAutoApprove,
			Suggestion:    suggestLow,
		}, nil
	}
}

func (h *HeuristicEvaluator) highSuggestion(ec *EvalContext) string {
	if strings.Contains(ec.ApplicantHistory, historyViolation) {
		return suggestHighMarked
	}
	return suggestHigh
}
