package risk_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/signoff/internal/risk"
	"github.com/kode4food/signoff/pkg/api"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		name     string
		config   api.RetryConfig
		count    int
		expected time.Duration
	}{
		{
			name: "fixed",
			config: api.RetryConfig{
				InitBackoff: 1000,
				BackoffType: api.BackoffTypeFixed,
			},
			count:    5,
			expected: time.Second,
		},
		{
			name: "linear_first_retry",
			config: api.RetryConfig{
				InitBackoff: 1000,
				BackoffType: api.BackoffTypeLinear,
			},
			count:    0,
			expected: time.Second,
		},
		{
			name: "linear_third_retry",
			config: api.RetryConfig{
				InitBackoff: 1000,
				BackoffType: api.BackoffTypeLinear,
			},
			count:    2,
			expected: 3 * time.Second,
		},
		{
			name: "exponential",
			config: api.RetryConfig{
				InitBackoff: 1000,
				BackoffType: api.BackoffTypeExponential,
			},
			count:    3,
			expected: 8 * time.Second,
		},
		{
			name: "exponential_capped",
			config: api.RetryConfig{
				InitBackoff: 1000,
				MaxBackoff:  5000,
				BackoffType: api.BackoffTypeExponential,
			},
			count:    10,
			expected: 5 * time.Second,
		},
		{
			name: "unknown_type_falls_back_to_fixed",
			config: api.RetryConfig{
				InitBackoff: 2000,
				BackoffType: "randomized",
			},
			count:    4,
			expected: 2 * time.Second,
		},
		{
			name: "zero_max_uncapped",
			config: api.RetryConfig{
				InitBackoff: 1000,
				BackoffType: api.BackoffTypeExponential,
			},
			count:    6,
			expected: 64 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, risk.Backoff(&tt.config, tt.count))
		})
	}
}

func TestRetryEvaluateSucceedsAfterRetries(t *testing.T) {
	boom := errors.New("model unavailable")
	fake := &fakeEvaluator{}
	fake.evaluate = func(*risk.EvalContext) (*api.RiskResult, error) {
		if fake.calls < 3 {
			return nil, boom
		}
		return lowRisk(), nil
	}

	retry := risk.NewRetryEvaluator(fake, &api.RetryConfig{
		MaxRetries:  3,
		InitBackoff: 1,
		BackoffType: api.BackoffTypeFixed,
	})

	res, err := retry.Evaluate(context.Background(), &risk.EvalContext{})
	require.NoError(t, err)
	assert.Equal(t, api.RiskLow, res.Risk)
	assert.Equal(t, 3, fake.calls)
}

func TestRetryEvaluateExhaustsBudget(t *testing.T) {
	boom := errors.New("model unavailable")
	fake := &fakeEvaluator{
		evaluate: func(*risk.EvalContext) (*api.RiskResult, error) {
			return nil, boom
		},
	}

	retry := risk.NewRetryEvaluator(fake, &api.RetryConfig{
		MaxRetries:  2,
		InitBackoff: 1,
		BackoffType: api.BackoffTypeFixed,
	})

	_, err := retry.Evaluate(context.Background(), &risk.EvalContext{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, fake.calls)
}

func TestRetryEvaluateDisabled(t *testing.T) {
	boom := errors.New("model unavailable")
	fake := &fakeEvaluator{
		evaluate: func(*risk.EvalContext) (*api.RiskResult, error) {
			return nil, boom
		},
	}

	retry := risk.NewRetryEvaluator(fake, &api.RetryConfig{
		MaxRetries:  0,
		InitBackoff: 1000,
		BackoffType: api.BackoffTypeFixed,
	})

	_, err := retry.Evaluate(context.Background(), &risk.EvalContext{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, fake.calls)
}

func TestRetryEvaluateContextCanceled(t *testing.T) {
	boom := errors.New("model unavailable")
	fake := &fakeEvaluator{
		evaluate: func(*risk.EvalContext) (*api.RiskResult, error) {
			return nil, boom
		},
	}

	retry := risk.NewRetryEvaluator(fake, &api.RetryConfig{
		MaxRetries:  -1,
		InitBackoff: 60_000,
		BackoffType: api.BackoffTypeFixed,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retry.Evaluate(ctx, &risk.EvalContext{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fake.calls)
}
