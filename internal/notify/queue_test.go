package notify_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/signoff/internal/notify"
	"github.com/kode4food/signoff/pkg/api"
)

const deliverTimeout = 3 * time.Second

func TestQueueOrdered(t *testing.T) {
	var mu sync.Mutex
	var order []api.RequestID
	done := make(chan struct{})

	q := notify.NewQueue(
		func(batch []*notify.Notification) error {
			for _, msg := range batch {
				if msg.Channel == "" {
					return errors.New("missing channel")
				}
				mu.Lock()
				order = append(order, msg.RequestID)
				if msg.RequestID == "REQ003" {
					close(done)
				}
				mu.Unlock()
			}
			return nil
		},
		128, 1,
	)
	q.Start()
	t.Cleanup(q.Flush)

	for _, id := range []api.RequestID{"REQ001", "REQ002", "REQ003"} {
		q.Enqueue(&notify.Notification{
			Channel:   api.ChannelEmail,
			RequestID: id,
		})
	}

	select {
	case <-done:
	case <-time.After(deliverTimeout):
		assert.Fail(t, "timed out waiting for notifications")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []api.RequestID{"REQ001", "REQ002", "REQ003"}, order)
}

func TestQueueHandlerError(t *testing.T) {
	done := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	q := notify.NewQueue(
		func(batch []*notify.Notification) error {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				return errors.New("handler error")
			}
			close(done)
			return nil
		},
		128, 2,
	)
	q.Start()
	t.Cleanup(q.Flush)

	q.Enqueue(&notify.Notification{Channel: api.ChannelEmail})

	select {
	case <-done:
	case <-time.After(deliverTimeout):
		assert.Fail(t, "timed out waiting for retry")
	}
}

func TestQueueHandlerPanic(t *testing.T) {
	done := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	q := notify.NewQueue(
		func(batch []*notify.Notification) error {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				panic("test panic")
			}
			close(done)
			return nil
		},
		128, 2,
	)
	q.Start()
	t.Cleanup(q.Flush)

	q.Enqueue(&notify.Notification{Channel: api.ChannelEmail})

	select {
	case <-done:
	case <-time.After(deliverTimeout):
		assert.Fail(t, "timed out waiting for recovery")
	}
}

func TestQueueCancel(t *testing.T) {
	handled := make(chan struct{}, 1)

	q := notify.NewQueue(
		func(batch []*notify.Notification) error {
			handled <- struct{}{}
			return nil
		},
		128, 2,
	)
	q.Start()

	q.Cancel()
	q.Cancel()

	select {
	case <-handled:
		t.Fatal("unexpected notification handled after cancel")
	default:
	}
}

func TestDispatcherRoutes(t *testing.T) {
	as := assert.New(t)

	email := &captureNotifier{}
	alert := &captureNotifier{}
	handler := notify.NewDispatcher(notify.Notifiers{
		api.ChannelEmail: email,
		api.ChannelAlert: alert,
	})

	err := handler([]*notify.Notification{
		{Channel: api.ChannelEmail, RequestID: "REQ001"},
		{Channel: api.ChannelAlert, RequestID: "REQ001"},
		{Channel: api.ChannelEmail, RequestID: "REQ002"},
	})

	as.NoError(err)
	as.Len(email.sent(), 2)
	as.Len(alert.sent(), 1)
}

func TestDispatcherUnknownChannel(t *testing.T) {
	as := assert.New(t)

	handler := notify.NewDispatcher(notify.Notifiers{})
	err := handler([]*notify.Notification{
		{Channel: api.ChannelERP, RequestID: "REQ001"},
	})

	as.NoError(err)
}

func TestDispatcherCollectsErrors(t *testing.T) {
	as := assert.New(t)

	email := &captureNotifier{}
	erp := &captureNotifier{err: errors.New("erp offline")}
	handler := notify.NewDispatcher(notify.Notifiers{
		api.ChannelEmail: email,
		api.ChannelERP:   erp,
	})

	err := handler([]*notify.Notification{
		{Channel: api.ChannelEmail, RequestID: "REQ001"},
		{Channel: api.ChannelERP, RequestID: "REQ001"},
	})

	as.Error(err)
	as.Contains(err.Error(), "erp offline")
	as.Len(email.sent(), 1)
}
