// Package notify dispatches run notifications to the outside world:
// result emails to requesters, purchase order status updates to the
// ERP, and operational alerts. Messages are queued by the walker and
// delivered asynchronously so a slow integration never stalls a run
package notify

import (
	"context"
	"fmt"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// Notification is one outbound message produced by a run
	Notification struct {
		Channel   api.Channel   `json:"channel"`
		RunID     api.RunID     `json:"run_id"`
		RequestID api.RequestID `json:"request_id"`
		Tenant    api.Tenant    `json:"tenant,omitempty"`
		User      string        `json:"user,omitempty"`
		Subject   string        `json:"subject,omitempty"`
		Message   string        `json:"message,omitempty"`
		Status    string        `json:"status,omitempty"`
	}

	// Notifier delivers notifications over a single channel
	Notifier interface {
		Send(context.Context, *Notification) error
	}

	// Notifiers routes each channel to its Notifier
	Notifiers map[api.Channel]Notifier
)

// Outcome labels as they appear in emails and ERP updates
const (
	StatusApproved = "通过"
	StatusRejected = "拒绝"

	resultSubject = "审批结果通知"
)

// StatusLabel returns the outcome label for a run's decisions
func StatusLabel(approved bool) string {
	if approved {
		return StatusApproved
	}
	return StatusRejected
}

// ForChannel builds the notification a notify node dispatches over one
// of its configured channels
func ForChannel(st *api.RunState, channel api.Channel) *Notification {
	if channel == api.ChannelERP {
		return NewERPUpdate(st)
	}
	return NewUserNotice(st, channel)
}

// NewUserNotice builds the in-flow status message a notify node sends
// to the requester
func NewUserNotice(st *api.RunState, channel api.Channel) *Notification {
	status := StatusLabel(st.Approved())
	return &Notification{
		Channel:   channel,
		RunID:     st.RunID,
		RequestID: st.Request.RequestID,
		Tenant:    st.Tenant,
		User:      st.Request.User,
		Subject:   resultSubject,
		Message: fmt.Sprintf(
			"您的审批请求(%s)已%s！", st.Request.RequestID, status,
		),
		Status: status,
	}
}

// NewResultEmail builds the end-of-run result email for a request
func NewResultEmail(st *api.RunState) *Notification {
	status := StatusLabel(st.Approved())
	return &Notification{
		Channel:   api.ChannelEmail,
		RunID:     st.RunID,
		RequestID: st.Request.RequestID,
		Tenant:    st.Tenant,
		User:      st.Request.User,
		Subject:   resultSubject,
		Message: fmt.Sprintf(
			"您的审批请求(%s)已%s", st.Request.RequestID, status,
		),
		Status: status,
	}
}

// NewERPUpdate builds the purchase order status update for a request
func NewERPUpdate(st *api.RunState) *Notification {
	return &Notification{
		Channel:   api.ChannelERP,
		RunID:     st.RunID,
		RequestID: st.Request.RequestID,
		Tenant:    st.Tenant,
		User:      st.Request.User,
		Status:    StatusLabel(st.Approved()),
	}
}

// NewAlert builds an operational alert tied to a run
func NewAlert(st *api.RunState, message string) *Notification {
	return &Notification{
		Channel:   api.ChannelAlert,
		RunID:     st.RunID,
		RequestID: st.Request.RequestID,
		Tenant:    st.Tenant,
		User:      st.Request.User,
		Message:   message,
	}
}
