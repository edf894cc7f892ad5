package notify_test

import (
	"context"
	"sync"
	"testing"

	"github.com/kode4food/signoff/internal/assert"
	"github.com/kode4food/signoff/internal/assert/helpers"
	"github.com/kode4food/signoff/internal/notify"
	"github.com/kode4food/signoff/pkg/api"
)

type captureNotifier struct {
	err  error
	mu   sync.Mutex
	msgs []*notify.Notification
}

func (n *captureNotifier) Send(
	_ context.Context, msg *notify.Notification,
) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *captureNotifier) sent() []*notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*notify.Notification{}, n.msgs...)
}

func decidedRunState(approved bool) *api.RunState {
	st := &api.RunState{
		RunID:   "run-1",
		FlowID:  "expense-approval",
		Tenant:  "acme",
		Status:  api.RunActive,
		Request: helpers.NewTestRequest(),
		State:   api.Args{},
	}
	return st.SetDecision("manager", &api.Decision{
		Role:     "manager",
		Approver: "王经理",
		Approved: approved,
	})
}

func TestStatusLabel(t *testing.T) {
	as := assert.New(t)

	as.Equal("通过", notify.StatusLabel(true))
	as.Equal("拒绝", notify.StatusLabel(false))
}

func TestNewResultEmail(t *testing.T) {
	as := assert.New(t)

	msg := notify.NewResultEmail(decidedRunState(true))
	as.Equal(api.ChannelEmail, msg.Channel)
	as.Equal(api.RunID("run-1"), msg.RunID)
	as.Equal(api.RequestID("REQ001"), msg.RequestID)
	as.Equal(api.Tenant("acme"), msg.Tenant)
	as.Equal("张三", msg.User)
	as.Equal("审批结果通知", msg.Subject)
	as.Equal("您的审批请求(REQ001)已通过", msg.Message)
	as.Equal(notify.StatusApproved, msg.Status)

	msg = notify.NewResultEmail(decidedRunState(false))
	as.Equal("您的审批请求(REQ001)已拒绝", msg.Message)
	as.Equal(notify.StatusRejected, msg.Status)
}

func TestNewUserNotice(t *testing.T) {
	as := assert.New(t)

	msg := notify.NewUserNotice(decidedRunState(true), api.ChannelEmail)
	as.Equal(api.ChannelEmail, msg.Channel)
	as.Equal("您的审批请求(REQ001)已通过！", msg.Message)
}

func TestNewERPUpdate(t *testing.T) {
	as := assert.New(t)

	msg := notify.NewERPUpdate(decidedRunState(true))
	as.Equal(api.ChannelERP, msg.Channel)
	as.Equal(api.RequestID("REQ001"), msg.RequestID)
	as.Equal(notify.StatusApproved, msg.Status)
	as.Empty(msg.Message)

	msg = notify.NewERPUpdate(decidedRunState(false))
	as.Equal(notify.StatusRejected, msg.Status)
}

func TestNewAlert(t *testing.T) {
	as := assert.New(t)

	msg := notify.NewAlert(decidedRunState(false), "主管审批节点异常：主管审批异常！")
	as.Equal(api.ChannelAlert, msg.Channel)
	as.Equal(api.RunID("run-1"), msg.RunID)
	as.Equal("主管审批节点异常：主管审批异常！", msg.Message)
}

func TestForChannel(t *testing.T) {
	as := assert.New(t)

	st := decidedRunState(true)

	msg := notify.ForChannel(st, api.ChannelERP)
	as.Equal(api.ChannelERP, msg.Channel)
	as.Empty(msg.Message)

	msg = notify.ForChannel(st, api.ChannelEmail)
	as.Equal(api.ChannelEmail, msg.Channel)
	as.Equal("您的审批请求(REQ001)已通过！", msg.Message)

	msg = notify.ForChannel(st, api.ChannelAlert)
	as.Equal(api.ChannelAlert, msg.Channel)
}
