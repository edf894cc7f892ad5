package risk

import (
	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/pkg/api"
)

// New composes the configured evaluator chain: the provider-selected
// base evaluator behind retries, memoized when a cache size is set.
// Rules are snapshotted; only the heuristic path reads them
func New(cfg *config.Config, providers Providers, rules *api.Rules) Evaluator {
	var base Evaluator
	if cfg.Risk.Provider == ProviderHeuristic {
		base = NewHeuristicEvaluator(rules)
	} else {
		base = NewLLMEvaluator(&LLMConfig{
			Providers:       providers,
			DefaultProvider: cfg.Risk.Provider,
			OpenAIKey:       cfg.Risk.OpenAIKey,
			DeepSeekKey:     cfg.Risk.DeepSeekKey,
		})
	}

	res := NewRetryEvaluator(base, &cfg.Retry)
	if cfg.RiskCacheSize > 0 {
		return NewMemoEvaluator(res, cfg.RiskCacheSize)
	}
	return res
}
