package api

import (
	"errors"

	"github.com/kode4food/signoff/pkg/util"
)

// RetryConfig controls how failed risk evaluations are retried before a
// run is marked as failed
type RetryConfig struct {
	MaxRetries  int    `json:"max_retries,omitempty"`
	InitBackoff int64  `json:"init_backoff_ms,omitempty"`
	MaxBackoff  int64  `json:"max_backoff_ms,omitempty"`
	BackoffType string `json:"backoff_type,omitempty"`
}

// Millisecond-based durations for config fields that travel as JSON
const (
	Second int64 = 1000
	Minute       = Second * 60
	Hour         = Minute * 60
)

const (
	BackoffTypeFixed       = "fixed"
	BackoffTypeLinear      = "linear"
	BackoffTypeExponential = "exponential"
)

var (
	ErrNegativeBackoff    = errors.New("backoff cannot be negative")
	ErrMaxBackoffTooSmall = errors.New(
		"max backoff must be >= initial backoff",
	)
	ErrInvalidBackoffType = errors.New("invalid backoff type")

	validBackoffTypes = util.SetOf(
		BackoffTypeFixed,
		BackoffTypeLinear,
		BackoffTypeExponential,
	)
)

// Validate checks that the retry configuration is internally consistent
func (rc *RetryConfig) Validate() error {
	if rc.InitBackoff < 0 || rc.MaxBackoff < 0 {
		return ErrNegativeBackoff
	}
	if rc.MaxBackoff != 0 && rc.MaxBackoff < rc.InitBackoff {
		return ErrMaxBackoffTooSmall
	}
	if rc.BackoffType != "" && !validBackoffTypes.Contains(rc.BackoffType) {
		return ErrInvalidBackoffType
	}
	return nil
}
