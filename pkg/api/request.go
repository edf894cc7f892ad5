package api

import (
	"errors"
	"fmt"
)

// ApprovalRequest is a submitted request for approval. It is read-only
// once submitted; processing outcomes accumulate on the run state, not
// here
type ApprovalRequest struct {
	RequestID RequestID `json:"request_id"`
	User      string    `json:"user"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	Urgent    bool      `json:"urgent"`
	Tenant    Tenant    `json:"tenant,omitempty"`

	// SimulateError forces the named approval role to reject, exercising
	// the alerting path
	SimulateError Role `json:"simulate_error,omitempty"`
}

const (
	ArgRequestID     Name = "request_id"
	ArgUser          Name = "user"
	ArgAmount        Name = "amount"
	ArgReason        Name = "reason"
	ArgUrgent        Name = "urgent"
	ArgSimulateError Name = "simulate_error"

	ArgRisk          Name = "risk"
	ArgRecommendPath Name = "recommend_path"
	ArgSuggestion    Name = "suggestion"
)

var (
	ErrRequestIDEmpty   = errors.New("request ID empty")
	ErrRequestUserEmpty = errors.New("request user empty")
	ErrNegativeAmount   = errors.New("request amount negative")
)

// Validate checks that a request is well-formed before a run accepts it
func (r *ApprovalRequest) Validate() error {
	if r.RequestID == "" {
		return ErrRequestIDEmpty
	}
	if r.User == "" {
		return fmt.Errorf("%w: %s", ErrRequestUserEmpty, r.RequestID)
	}
	if r.Amount < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, r.RequestID)
	}
	return nil
}

// ToArgs seeds the initial run state from the request fields, the same
// values branch conditions evaluate against
func (r *ApprovalRequest) ToArgs() Args {
	res := Args{
		ArgRequestID: string(r.RequestID),
		ArgUser:      r.User,
		ArgAmount:    r.Amount,
		ArgReason:    r.Reason,
		ArgUrgent:    r.Urgent,
	}
	if r.SimulateError != "" {
		res[ArgSimulateError] = string(r.SimulateError)
	}
	return res
}
