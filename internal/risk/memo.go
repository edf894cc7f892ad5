package risk

import (
	"context"

	"github.com/kode4food/lru"

	"github.com/kode4food/signoff/pkg/api"
)

// MemoEvaluator caches evaluations by request context, so identical
// requests never hit the model twice. Failed evaluations are not cached
type MemoEvaluator struct {
	next  Evaluator
	cache *lru.Cache[*api.RiskResult]
}

// NewMemoEvaluator wraps an evaluator with a memo cache of the given
// maximum size
func NewMemoEvaluator(next Evaluator, maxSize int) *MemoEvaluator {
	return &MemoEvaluator{
		next:  next,
		cache: lru.NewCache[*api.RiskResult](maxSize),
	}
}

// Evaluate returns a cached result for the context, evaluating through
// to the wrapped evaluator on a miss
func (m *MemoEvaluator) Evaluate(
	ctx context.Context, ec *EvalContext,
) (*api.RiskResult, error) {
	key, err := ec.Args().HashKey()
	if err != nil {
		return m.next.Evaluate(ctx, ec)
	}
	return m.cache.Get(key, func() (*api.RiskResult, error) {
		return m.next.Evaluate(ctx, ec)
	})
}
