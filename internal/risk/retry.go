package risk

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/log"
)

type (
	backoffCalculator func(baseDelay int64, retryCount int) int64

	// RetryEvaluator re-runs failed evaluations using the configured
	// backoff strategy before giving up
	RetryEvaluator struct {
		next   Evaluator
		config *api.RetryConfig
	}
)

var backoffCalculators = map[string]backoffCalculator{
	api.BackoffTypeFixed: func(base int64, _ int) int64 {
		return base
	},
	api.BackoffTypeLinear: func(base int64, count int) int64 {
		return base * int64(count+1)
	},
	api.BackoffTypeExponential: func(base int64, count int) int64 {
		multiplier := math.Pow(2, float64(count))
		return int64(float64(base) * multiplier)
	},
}

// NewRetryEvaluator wraps an evaluator with retry behavior. A zero max
// retry count disables retries, a negative count retries until the
// context expires
func NewRetryEvaluator(next Evaluator, config *api.RetryConfig) *RetryEvaluator {
	return &RetryEvaluator{
		next:   next,
		config: config,
	}
}

// Evaluate runs the wrapped evaluator, retrying failures with backoff
// until the retry budget or the context runs out
func (r *RetryEvaluator) Evaluate(
	ctx context.Context, ec *EvalContext,
) (*api.RiskResult, error) {
	for attempt := 0; ; attempt++ {
		res, err := r.next.Evaluate(ctx, ec)
		if err == nil {
			return res, nil
		}
		if !r.shouldRetry(attempt) {
			return nil, err
		}
		slog.Warn("Risk evaluation failed, retrying",
			log.Tenant(ec.Tenant),
			slog.Int("attempt", attempt),
			log.Error(err))
		if err := r.wait(ctx, Backoff(r.config, attempt)); err != nil {
			return nil, err
		}
	}
}

func (r *RetryEvaluator) shouldRetry(attempt int) bool {
	if r.config.MaxRetries == 0 {
		return false
	}
	if r.config.MaxRetries < 0 {
		return true
	}
	return attempt < r.config.MaxRetries
}

func (r *RetryEvaluator) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff computes the delay before the given retry using the configured
// strategy. Unknown strategies fall back to a fixed delay, and a zero
// max leaves the delay uncapped
func Backoff(config *api.RetryConfig, retryCount int) time.Duration {
	calculator, ok := backoffCalculators[config.BackoffType]
	if !ok {
		calculator = backoffCalculators[api.BackoffTypeFixed]
	}
	delay := calculator(config.InitBackoff, retryCount)
	if config.MaxBackoff > 0 {
		delay = min(delay, config.MaxBackoff)
	}
	return time.Duration(delay) * time.Millisecond
}
