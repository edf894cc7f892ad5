package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/signoff/pkg/log"
)

type (
	// Queue delivers queued notifications in bounded batches. A fixed
	// set of workers drains the topic so one slow channel never backs
	// up the runs producing messages
	Queue struct {
		prod        topic.Producer[*Notification]
		cons        topic.Consumer[*Notification]
		handler     Handler
		stop        chan struct{}
		batchSize   int
		workers     int
		wg          sync.WaitGroup
		startOnce   sync.Once
		stopOnce    sync.Once
		cleanupOnce sync.Once
	}

	// Handler processes a batch of notifications in a single execution
	Handler func([]*Notification) error
)

var ErrHandlerPanicked = errors.New("notification handler panicked")

const (
	maxRetries = 3
	retryDelay = 100 * time.Millisecond
)

// NewQueue creates a notification queue with the provided batch size
// and worker count
func NewQueue(handler Handler, batchSize, workers int) *Queue {
	queue := caravan.NewTopic[*Notification]()
	return &Queue{
		prod:      queue.NewProducer(),
		cons:      queue.NewConsumer(),
		handler:   handler,
		stop:      make(chan struct{}),
		batchSize: max(batchSize, 1),
		workers:   max(workers, 1),
	}
}

// NewDispatcher builds a batch handler that routes each notification to
// the notifier registered for its channel
func NewDispatcher(notifiers Notifiers) Handler {
	return func(batch []*Notification) error {
		var errs []error
		for _, msg := range batch {
			n, ok := notifiers[msg.Channel]
			if !ok {
				slog.Warn("No notifier for channel",
					log.Channel(msg.Channel),
					log.RequestID(msg.RequestID))
				continue
			}
			if err := n.Send(context.Background(), msg); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", msg.Channel, err))
			}
		}
		return errors.Join(errs...)
	}
}

// Start begins delivering queued notifications
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		for range q.workers {
			q.wg.Go(q.consume)
		}
	})
}

// Enqueue adds a notification for asynchronous delivery
func (q *Queue) Enqueue(msg *Notification) {
	q.prod.Send() <- msg
}

// Flush delivers remaining notifications and stops the queue
func (q *Queue) Flush() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	q.wg.Wait()
	q.cleanupOnce.Do(q.flush)
}

// Cancel immediately stops the queue without delivering remaining
// notifications
func (q *Queue) Cancel() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	q.wg.Wait()
	q.cleanupOnce.Do(q.close)
}

func (q *Queue) consume() {
	for {
		select {
		case <-q.stop:
			return
		case msg, ok := <-q.cons.Receive():
			if !ok {
				return
			}
			q.handleBatch(q.collectBatch(msg))
		}
	}
}

func (q *Queue) collectBatch(first *Notification) []*Notification {
	batch := []*Notification{first}
	for len(batch) < q.batchSize {
		select {
		case msg, ok := <-q.cons.Receive():
			if !ok {
				return batch
			}
			batch = append(batch, msg)
		default:
			return batch
		}
	}
	return batch
}

func (q *Queue) flush() {
	for {
		select {
		case msg, ok := <-q.cons.Receive():
			if !ok {
				q.close()
				return
			}
			q.handleBatch(q.collectBatch(msg))
		default:
			q.close()
			return
		}
	}
}

func (q *Queue) close() {
	q.prod.Close()
	q.cons.Close()
}

func (q *Queue) handleBatch(batch []*Notification) {
	for attempt := range maxRetries {
		err := q.tryHandleBatch(batch)
		if err == nil {
			return
		}
		slog.Error("Notification batch failed",
			slog.Int("batch_size", len(batch)),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries),
			slog.Any("error", err))
		if attempt < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	slog.Error("Notification batch permanently failed",
		slog.Int("batch_size", len(batch)))
}

func (q *Queue) tryHandleBatch(batch []*Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return q.handler(batch)
}
