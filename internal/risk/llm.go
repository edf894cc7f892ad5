package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/log"
	"github.com/sashabaranov/go-openai"
)

type (
	// Providers maps a tenant onto the provider answering its
	// evaluations. Tenants not listed use the configured default
	Providers map[api.Tenant]string

	// LLMConfig selects and authenticates the chat completion backends
	LLMConfig struct {
		Providers       Providers
		DefaultProvider string
		OpenAIKey       string
		OpenAIModel     string
		DeepSeekKey     string
	}

	// LLMEvaluator prompts a chat completion model and parses the
	// labeled answer it returns
	LLMEvaluator struct {
		providers       Providers
		defaultProvider string
		openai          *openai.Client
		openaiModel     string
		deepseek        *openai.Client
	}
)

const (
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
	ProviderHeuristic = "heuristic"

	deepSeekBaseURL = "https://api.deepseek.com/v1"
	deepSeekModel   = "deepseek-chat"

	defaultOpenAIModel = "gpt-4o-mini"

	// deepSeekTemperature leaves the model some latitude; the OpenAI
	// backend is pinned to deterministic output
	deepSeekTemperature = 0.7
	openAITemperature   = 0
)

var (
	ErrMissingAPIKey     = errors.New("no API key for provider")
	ErrUnknownProvider   = errors.New("unknown risk provider")
	ErrNoChoicesReturned = errors.New("model returned no choices")
)

// NewLLMEvaluator constructs an evaluator over the providers the config
// authenticates. Provider selection happens per request, so a missing
// key only fails tenants routed to that provider
func NewLLMEvaluator(cfg *LLMConfig) *LLMEvaluator {
	res := &LLMEvaluator{
		providers:       cfg.Providers,
		defaultProvider: cfg.DefaultProvider,
		openaiModel:     cfg.OpenAIModel,
	}
	if res.defaultProvider == "" {
		res.defaultProvider = ProviderOpenAI
	}
	if res.openaiModel == "" {
		res.openaiModel = defaultOpenAIModel
	}
	if cfg.OpenAIKey != "" {
		res.openai = openai.NewClient(cfg.OpenAIKey)
	}
	if cfg.DeepSeekKey != "" {
		dc := openai.DefaultConfig(cfg.DeepSeekKey)
		dc.BaseURL = deepSeekBaseURL
		res.deepseek = openai.NewClientWithConfig(dc)
	}
	return res
}

// ProviderFor resolves the provider that answers a tenant's evaluations
func (l *LLMEvaluator) ProviderFor(tenant api.Tenant) string {
	if p, ok := l.providers[tenant]; ok {
		return p
	}
	return l.defaultProvider
}

// Evaluate prompts the tenant's provider and parses its answer
func (l *LLMEvaluator) Evaluate(
	ctx context.Context, ec *EvalContext,
) (*api.RiskResult, error) {
	provider := l.ProviderFor(ec.Tenant)
	req, err := l.makeRequest(provider, BuildPrompt(ec))
	if err != nil {
		return nil, err
	}

	client := l.clientFor(provider)
	if client == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, provider)
	}

	slog.Debug("Evaluating risk",
		log.Tenant(ec.Tenant),
		slog.String("provider", provider),
		slog.String("model", req.Model))

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoicesReturned
	}

	res, err := ParseOutput(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	slog.Debug("Risk evaluated",
		log.Tenant(ec.Tenant),
		slog.String("risk", string(res.Risk)),
		slog.String("recommend_path", res.RecommendPath))
	return res, nil
}

func (l *LLMEvaluator) makeRequest(
	provider, prompt string,
) (openai.ChatCompletionRequest, error) {
	msgs := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}}
	switch provider {
	case ProviderDeepSeek:
		return openai.ChatCompletionRequest{
			Model:       deepSeekModel,
			Messages:    msgs,
			Temperature: deepSeekTemperature,
		}, nil
	case ProviderOpenAI:
		return openai.ChatCompletionRequest{
			Model:       l.openaiModel,
			Messages:    msgs,
			Temperature: openAITemperature,
		}, nil
	default:
		return openai.ChatCompletionRequest{}, fmt.Errorf(
			"%w: %s", ErrUnknownProvider, provider,
		)
	}
}

func (l *LLMEvaluator) clientFor(provider string) *openai.Client {
	switch provider {
	case ProviderDeepSeek:
		return l.deepseek
	case ProviderOpenAI:
		return l.openai
	default:
		return nil
	}
}
