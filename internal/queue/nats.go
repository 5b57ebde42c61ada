package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/soltixdb/dbstats/internal/logging"
)

// NATSConfig configures the NATS backend
type NATSConfig struct {
	URL      string
	Username string
	Password string

	// Group is the queue group shared by all workers; each request is
	// delivered to one member only.
	Group string
}

// NATSQueue uses core NATS subjects with queue-group subscriptions
type NATSQueue struct {
	conn   *nats.Conn
	group  string
	logger *logging.Logger

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NewNATSQueue connects to the server in cfg.URL
func NewNATSQueue(cfg NATSConfig, logger *logging.Logger) (*NATSQueue, error) {
	if logger == nil {
		logger = logging.Global()
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name("dbstats"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return newNATSQueueWithConn(conn, cfg.Group, logger), nil
}

func newNATSQueueWithConn(conn *nats.Conn, group string, logger *logging.Logger) *NATSQueue {
	if group == "" {
		group = "dbstats-workers"
	}
	return &NATSQueue{
		conn:   conn,
		group:  group,
		logger: logger,
		subs:   make(map[string]*nats.Subscription),
	}
}

// Publish sends data and flushes so the server has it before returning
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	if err := q.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush subject %s: %w", subject, err)
	}
	return nil
}

// Subscribe joins the queue group on subject
func (q *NATSQueue) Subscribe(subject string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.subs[subject]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	sub, err := q.conn.QueueSubscribe(subject, q.group, func(m *nats.Msg) {
		msg := Message{Subject: m.Subject, Data: m.Data}
		if err := handler(context.Background(), msg); err != nil {
			q.logger.Warn("Handler failed", "subject", m.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}
	// make sure the server registered the interest before publishers start
	if err := q.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subs[subject] = sub
	return nil
}

// Unsubscribe drops the subscription of subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sub, ok := q.subs[subject]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	delete(q.subs, subject)
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}
	return nil
}

// Close drains in-flight messages and closes the connection
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	q.subs = make(map[string]*nats.Subscription)
	q.mu.Unlock()

	if q.conn.IsClosed() {
		return nil
	}
	if err := q.conn.Drain(); err != nil {
		q.conn.Close()
		return err
	}
	return nil
}
