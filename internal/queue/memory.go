package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/soltixdb/dbstats/internal/logging"
)

const memoryBuffer = 1024

type memorySub struct {
	ch     chan Message
	cancel context.CancelFunc
	done   chan struct{}
}

// MemoryQueue delivers messages in process. Publishing to a subject nobody
// listens on drops the message.
type MemoryQueue struct {
	mu     sync.Mutex
	subs   map[string]*memorySub
	closed bool
	logger *logging.Logger
}

// NewMemoryQueue creates an empty in-process queue
func NewMemoryQueue(logger *logging.Logger) *MemoryQueue {
	if logger == nil {
		logger = logging.Global()
	}
	return &MemoryQueue{
		subs:   make(map[string]*memorySub),
		logger: logger,
	}
}

// Publish hands a copy of data to the subject's subscriber
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	sub, ok := q.subs[subject]
	q.mu.Unlock()
	if !ok {
		q.logger.Debug("No subscriber, message dropped", "subject", subject)
		return nil
	}

	msg := Message{Subject: subject, Data: append([]byte(nil), data...)}
	select {
	case sub.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("subject %s: buffer full", subject)
	}
}

// Subscribe starts one goroutine delivering the subject's messages in order
func (q *MemoryQueue) Subscribe(subject string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if _, ok := q.subs[subject]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &memorySub{
		ch:     make(chan Message, memoryBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	q.subs[subject] = sub

	go func() {
		defer close(sub.done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-sub.ch:
				if err := handler(ctx, msg); err != nil {
					q.logger.Warn("Handler failed", "subject", msg.Subject, "error", err)
				}
			}
		}
	}()
	return nil
}

// Unsubscribe stops delivery; pending messages are discarded
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	sub, ok := q.subs[subject]
	delete(q.subs, subject)
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	sub.cancel()
	<-sub.done
	return nil
}

// Close stops every subscription
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	subs := q.subs
	q.subs = make(map[string]*memorySub)
	q.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		<-sub.done
	}
	return nil
}

// Pending returns the number of undelivered messages of a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if sub, ok := q.subs[subject]; ok {
		return len(sub.ch)
	}
	return 0
}
