package risk_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/internal/risk"
	"github.com/kode4food/signoff/pkg/api"
)

func TestNewHeuristicChain(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Risk.Provider = risk.ProviderHeuristic

	eval := risk.New(cfg, nil, api.DefaultRules())
	require.NotNil(t, eval)

	req := &api.ApprovalRequest{
		RequestID: "REQ001",
		User:      "张三",
		Amount:    12000,
		Reason:    "采购",
	}
	res, err := eval.Evaluate(
		context.Background(), risk.NewEvalContext(req, ""),
	)

	require.NoError(t, err)
	assert.Equal(t, api.RiskMedium, res.Risk)
	assert.Equal(t, "财务审批", res.RecommendPath)
}

func TestNewWithoutCache(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Risk.Provider = risk.ProviderHeuristic
	cfg.RiskCacheSize = 0

	eval := risk.New(cfg, nil, api.DefaultRules())
	require.NotNil(t, eval)

	req := &api.ApprovalRequest{
		RequestID: "REQ002",
		User:      "李四",
		Amount:    500,
		Reason:    "办公用品",
	}
	res, err := eval.Evaluate(
		context.Background(), risk.NewEvalContext(req, ""),
	)

	require.NoError(t, err)
	assert.Equal(t, api.RiskLow, res.Risk)
}

func TestHistorySummary(t *testing.T) {
	assert.Equal(t, "无历史记录", risk.HistorySummary(0, 0))
	assert.Equal(t, "已有3条正常审批记录", risk.HistorySummary(3, 0))
	assert.Equal(t, "有1次违规记录", risk.HistorySummary(4, 1))
}
