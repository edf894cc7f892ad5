package helpers

import (
	"context"
	"slices"
	"sync"

	"github.com/kode4food/signoff/internal/notify"
	"github.com/kode4food/signoff/internal/risk"
	"github.com/kode4food/signoff/pkg/api"
)

type (
	// MockEvaluator is a scriptable risk evaluator that records every
	// evaluation context it receives
	MockEvaluator struct {
		result *api.RiskResult
		err    error
		calls  []*risk.EvalContext
		mu     sync.Mutex
	}

	// MockNotifier records notifications instead of delivering them
	MockNotifier struct {
		err  error
		sent []*notify.Notification
		mu   sync.Mutex
	}
)

// NewMockEvaluator creates an evaluator that reports low risk until a
// result or error is scripted
func NewMockEvaluator() *MockEvaluator {
	return &MockEvaluator{}
}

func (m *MockEvaluator) Evaluate(
	_ context.Context, ec *risk.EvalContext,
) (*api.RiskResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ec)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &api.RiskResult{
		Risk:          api.RiskLow,
		RecommendPath: "自动通过",
		Suggestion:    "金额较小，历史正常，可自动通过。",
	}, nil
}

// SetResult scripts the result returned by subsequent evaluations
func (m *MockEvaluator) SetResult(res *api.RiskResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = res
}

// SetError scripts an error returned by subsequent evaluations
func (m *MockEvaluator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the evaluation contexts received so far
func (m *MockEvaluator) Calls() []*risk.EvalContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many evaluations were requested
func (m *MockEvaluator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// NewMockNotifier creates a notifier that records deliveries
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Channels wires the mock notifier into every delivery channel
func (m *MockNotifier) Channels() notify.Notifiers {
	return notify.Notifiers{
		api.ChannelEmail: m,
		api.ChannelERP:   m,
		api.ChannelAlert: m,
	}
}

func (m *MockNotifier) Send(
	_ context.Context, msg *notify.Notification,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// SetError makes subsequent sends fail
func (m *MockNotifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Sent returns every notification recorded so far
func (m *MockNotifier) Sent() []*notify.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

// SentOn returns the notifications recorded for one channel
func (m *MockNotifier) SentOn(ch api.Channel) []*notify.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*notify.Notification
	for _, msg := range m.sent {
		if msg.Channel == ch {
			res = append(res, msg)
		}
	}
	return res
}

// Count returns how many notifications were recorded
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
