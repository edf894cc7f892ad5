package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// RiskLevel is the canonical risk label produced by an evaluator
	RiskLevel string

	// RiskResult is the outcome of a risk evaluation, merged into the run
	// state and used to pick a branch
	RiskResult struct {
		Risk          RiskLevel `json:"risk"`
		RecommendPath string    `json:"recommend_path"`
		Suggestion    string    `json:"suggestion"`
	}

	// RiskRecord is a risk result persisted to the risk results file,
	// annotated with where in the run it was produced
	RiskRecord struct {
		InstanceID    RunID     `json:"instance_id"`
		FlowID        FlowID    `json:"flow_id"`
		NodeID        NodeID    `json:"node_id"`
		Risk          RiskLevel `json:"risk"`
		RecommendPath string    `json:"recommend_path"`
		Suggestion    string    `json:"suggestion"`
		EvaluatedAt   time.Time `json:"evaluated_at"`
	}
)

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

var ErrUnknownRiskLevel = errors.New("unknown risk level")

// riskLabels maps evaluator output labels onto canonical levels. Models
// prompted in Chinese answer with 高/中/低; English-prompted models with
// the level names
var riskLabels = map[string]RiskLevel{
	"高":      RiskHigh,
	"中":      RiskMedium,
	"低":      RiskLow,
	"high":   RiskHigh,
	"medium": RiskMedium,
	"low":    RiskLow,
}

// ParseRiskLevel normalizes an evaluator's risk label onto the canonical
// enum
func ParseRiskLevel(label string) (RiskLevel, error) {
	trimmed := strings.ToLower(strings.TrimSpace(label))
	if lvl, ok := riskLabels[trimmed]; ok {
		return lvl, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownRiskLevel, label)
}

// ToArgs returns the state values a risk evaluation merges into the run
func (r *RiskResult) ToArgs() Args {
	return Args{
		ArgRisk:          string(r.Risk),
		ArgRecommendPath: r.RecommendPath,
		ArgSuggestion:    r.Suggestion,
	}
}

// NewRiskRecord annotates a risk result with its run position
func NewRiskRecord(
	runID RunID, flowID FlowID, nodeID NodeID, res *RiskResult,
	at time.Time,
) *RiskRecord {
	return &RiskRecord{
		InstanceID:    runID,
		FlowID:        flowID,
		NodeID:        nodeID,
		Risk:          res.Risk,
		RecommendPath: res.RecommendPath,
		Suggestion:    res.Suggestion,
		EvaluatedAt:   at,
	}
}
