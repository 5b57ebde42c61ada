package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/soltixdb/dbstats/internal/logging"
)

// KafkaConfig configures the Kafka backend. Subjects map to topics.
type KafkaConfig struct {
	Brokers      []string
	GroupID      string        // default "dbstats"
	BatchTimeout time.Duration // producer linger, default 10ms
}

// KafkaQueue keeps one writer per topic and one reader per subscription
type KafkaQueue struct {
	cfg    KafkaConfig
	logger *logging.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	subs    map[string]*kafkaSub
}

type kafkaSub struct {
	reader *kafka.Reader
	cancel context.CancelFunc
	done   chan struct{}
}

// NewKafkaQueue validates the configuration; connections are opened lazily
func NewKafkaQueue(cfg KafkaConfig, logger *logging.Logger) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if logger == nil {
		logger = logging.Global()
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "dbstats"
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	return &KafkaQueue{
		cfg:     cfg,
		logger:  logger,
		writers: make(map[string]*kafka.Writer),
		subs:    make(map[string]*kafkaSub),
	}, nil
}

func (q *KafkaQueue) writer(topic string) *kafka.Writer {
	q.mu.Lock()
	defer q.mu.Unlock()

	if w, ok := q.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(q.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           q.cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	q.writers[topic] = w
	return w
}

// Publish writes one message to the subject's topic
func (q *KafkaQueue) Publish(ctx context.Context, subject string, data []byte) error {
	err := q.writer(subject).WriteMessages(ctx, kafka.Message{Value: data, Time: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", subject, err)
	}
	return nil
}

// Subscribe consumes the topic within the consumer group; offsets are
// committed only after the handler succeeds.
func (q *KafkaQueue) Subscribe(subject string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.subs[subject]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  q.cfg.Brokers,
		GroupID:  q.cfg.GroupID,
		Topic:    subject,
		MinBytes: 1,
		MaxBytes: 64 << 20,
		MaxWait:  time.Second,
	})
	ctx, cancel := context.WithCancel(context.Background())
	sub := &kafkaSub{reader: reader, cancel: cancel, done: make(chan struct{})}
	q.subs[subject] = sub

	go q.consume(ctx, sub, subject, handler)
	return nil
}

func (q *KafkaQueue) consume(ctx context.Context, sub *kafkaSub, subject string, handler Handler) {
	defer close(sub.done)

	for {
		m, err := sub.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			q.logger.Warn("Fetch failed", "topic", subject, "error", err)
			continue
		}

		if err := handler(ctx, Message{Subject: subject, Data: m.Value}); err != nil {
			q.logger.Warn("Handler failed", "topic", subject, "offset", m.Offset, "error", err)
			continue
		}
		if err := sub.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			q.logger.Warn("Commit failed", "topic", subject, "offset", m.Offset, "error", err)
		}
	}
}

// Unsubscribe stops the topic's reader
func (q *KafkaQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	sub, ok := q.subs[subject]
	delete(q.subs, subject)
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	sub.cancel()
	<-sub.done
	return sub.reader.Close()
}

// Close stops readers and flushes writers
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	subs, writers := q.subs, q.writers
	q.subs = make(map[string]*kafkaSub)
	q.writers = make(map[string]*kafka.Writer)
	q.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		sub.cancel()
		<-sub.done
		errs = append(errs, sub.reader.Close())
	}
	for _, w := range writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
