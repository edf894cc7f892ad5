package api

import (
	"errors"
	"fmt"
)

// Rules carries the tunable approval policy loaded from rules.json: the
// amount threshold branch conditions compare against, the approver
// directory, and optional default routing per risk level
type Rules struct {
	AmountThreshold float64              `json:"amount_threshold"`
	Approvers       map[Role]string      `json:"approvers,omitempty"`
	RiskPaths       map[RiskLevel]NodeID `json:"risk_paths,omitempty"`
}

const DefaultAmountThreshold = 10000

var (
	ErrNegativeThreshold = errors.New("amount threshold negative")
	ErrApproverNameEmpty = errors.New("approver name empty")
)

// DefaultRules returns the policy used when no rules file exists
func DefaultRules() *Rules {
	return &Rules{
		AmountThreshold: DefaultAmountThreshold,
		Approvers: map[Role]string{
			"manager": "manager",
			"finance": "finance",
			"ceo":     "ceo",
		},
	}
}

// Validate checks the rules for obvious misconfiguration
func (r *Rules) Validate() error {
	if r.AmountThreshold < 0 {
		return ErrNegativeThreshold
	}
	for role, name := range r.Approvers {
		if name == "" {
			return fmt.Errorf("%w: %s", ErrApproverNameEmpty, role)
		}
	}
	return nil
}

// ApproverFor resolves the approver name for a role, falling back to the
// role itself when unconfigured
func (r *Rules) ApproverFor(role Role) string {
	if r == nil {
		return string(role)
	}
	if name, ok := r.Approvers[role]; ok && name != "" {
		return name
	}
	return string(role)
}

// PathFor returns the default routing node for a risk level, or empty
// when the rules configure none
func (r *Rules) PathFor(level RiskLevel) NodeID {
	if r == nil {
		return ""
	}
	return r.RiskPaths[level]
}

// Threshold returns the configured amount threshold, or the default when
// unset
func (r *Rules) Threshold() float64 {
	if r == nil || r.AmountThreshold == 0 {
		return DefaultAmountThreshold
	}
	return r.AmountThreshold
}
