package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records delivered payloads
type collector struct {
	mu   sync.Mutex
	msgs []Message
	got  chan struct{}
}

func newCollector() *collector {
	return &collector{got: make(chan struct{}, 64)}
}

func (c *collector) handle(_ context.Context, msg Message) error {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
	c.got <- struct{}{}
	return nil
}

func (c *collector) wait(t *testing.T, n int) []Message {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d of %d messages", i, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.msgs...)
}

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := NewMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	c := newCollector()
	require.NoError(t, q.Subscribe("dbstats.summaries", c.handle))

	require.NoError(t, q.Publish(context.Background(), "dbstats.summaries", []byte("one")))
	require.NoError(t, q.Publish(context.Background(), "dbstats.summaries", []byte("two")))

	msgs := c.wait(t, 2)
	assert.Equal(t, "one", string(msgs[0].Data))
	assert.Equal(t, "two", string(msgs[1].Data))
	assert.Equal(t, "dbstats.summaries", msgs[0].Subject)
}

func TestMemoryQueue_PublishCopiesPayload(t *testing.T) {
	q := NewMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	c := newCollector()
	require.NoError(t, q.Subscribe("s", c.handle))

	data := []byte("abc")
	require.NoError(t, q.Publish(context.Background(), "s", data))
	data[0] = 'x'

	assert.Equal(t, "abc", string(c.wait(t, 1)[0].Data))
}

func TestMemoryQueue_NoSubscriberDrops(t *testing.T) {
	q := NewMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	require.NoError(t, q.Publish(context.Background(), "nobody", []byte("x")))
	assert.Equal(t, 0, q.Pending("nobody"))
}

func TestMemoryQueue_HandlerErrorKeepsConsuming(t *testing.T) {
	q := NewMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	c := newCollector()
	require.NoError(t, q.Subscribe("s", func(ctx context.Context, msg Message) error {
		_ = c.handle(ctx, msg)
		return errors.New("boom")
	}))

	require.NoError(t, q.Publish(context.Background(), "s", []byte("1")))
	require.NoError(t, q.Publish(context.Background(), "s", []byte("2")))
	assert.Len(t, c.wait(t, 2), 2)
}

func TestMemoryQueue_SubscribeTwice(t *testing.T) {
	q := NewMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	require.NoError(t, q.Subscribe("s", newCollector().handle))
	err := q.Subscribe("s", newCollector().handle)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestMemoryQueue_Unsubscribe(t *testing.T) {
	q := NewMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	require.NoError(t, q.Subscribe("s", newCollector().handle))
	require.NoError(t, q.Unsubscribe("s"))
	assert.ErrorIs(t, q.Unsubscribe("s"), ErrNotSubscribed)

	// subject is free again
	require.NoError(t, q.Subscribe("s", newCollector().handle))
}

func TestMemoryQueue_Closed(t *testing.T) {
	q := NewMemoryQueue(logging.NewNop())
	require.NoError(t, q.Subscribe("s", newCollector().handle))
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Publish(context.Background(), "s", nil), ErrClosed)
	assert.ErrorIs(t, q.Subscribe("s", newCollector().handle), ErrClosed)
}

func TestMemoryQueue_CanceledContext(t *testing.T) {
	q := NewMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, q.Subscribe("s", func(context.Context, Message) error {
		<-block
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the buffer has room, so a canceled context may still succeed; once it
	// is full only the context or the full-buffer error can come back
	var err error
	for i := 0; i < memoryBuffer+2 && err == nil; i++ {
		err = q.Publish(ctx, "s", []byte("x"))
	}
	assert.Error(t, err)
}
