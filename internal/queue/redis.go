package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/soltixdb/dbstats/internal/logging"
)

const (
	redisPayloadField = "payload"
	redisStreamMaxLen = 10000
	redisReadBlock    = 2 * time.Second
)

// RedisConfig configures the Redis Streams backend
type RedisConfig struct {
	URL      string // redis://host:port/db or plain host:port
	Password string
	DB       int
	Group    string // consumer group, default "dbstats"
	Consumer string // consumer name, default hostname
}

// RedisQueue maps subjects to streams named "dbstats:<subject>"
type RedisQueue struct {
	client *redis.Client
	cfg    RedisConfig
	logger *logging.Logger

	mu   sync.Mutex
	subs map[string]*redisSub
}

type redisSub struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisQueue connects and pings the server
func NewRedisQueue(cfg RedisConfig, logger *logging.Logger) (*RedisQueue, error) {
	if logger == nil {
		logger = logging.Global()
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if cfg.Group == "" {
		cfg.Group = "dbstats"
	}
	if cfg.Consumer == "" {
		cfg.Consumer, _ = os.Hostname()
		if cfg.Consumer == "" {
			cfg.Consumer = "dbstats-1"
		}
	}

	return &RedisQueue{
		client: client,
		cfg:    cfg,
		logger: logger,
		subs:   make(map[string]*redisSub),
	}, nil
}

func streamKey(subject string) string {
	return "dbstats:" + subject
}

// Publish appends data to the subject's stream, trimming it approximately
func (q *RedisQueue) Publish(ctx context.Context, subject string, data []byte) error {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(subject),
		MaxLen: redisStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{redisPayloadField: data},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", streamKey(subject), err)
	}
	return nil
}

// Subscribe reads the stream through the consumer group
func (q *RedisQueue) Subscribe(subject string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.subs[subject]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	stream := streamKey(subject)
	ctx, cancel := context.WithCancel(context.Background())
	err := q.client.XGroupCreateMkStream(ctx, stream, q.cfg.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		cancel()
		return fmt.Errorf("failed to create consumer group on %s: %w", stream, err)
	}

	sub := &redisSub{cancel: cancel, done: make(chan struct{})}
	q.subs[subject] = sub
	go q.consume(ctx, subject, handler, sub.done)
	return nil
}

func (q *RedisQueue) consume(ctx context.Context, subject string, handler Handler, done chan struct{}) {
	defer close(done)
	stream := streamKey(subject)

	for ctx.Err() == nil {
		res, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.cfg.Group,
			Consumer: q.cfg.Consumer,
			Streams:  []string{stream, ">"},
			Count:    16,
			Block:    redisReadBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			q.logger.Warn("Stream read failed", "stream", stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range res {
			for _, m := range s.Messages {
				payload, _ := m.Values[redisPayloadField].(string)
				if err := handler(ctx, Message{Subject: subject, Data: []byte(payload)}); err != nil {
					// left pending for XCLAIM by another consumer
					q.logger.Warn("Handler failed", "stream", stream, "id", m.ID, "error", err)
					continue
				}
				q.client.XAck(ctx, stream, q.cfg.Group, m.ID)
			}
		}
	}
}

// Unsubscribe stops reading the subject's stream
func (q *RedisQueue) Unsubscribe(subject string) error {
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

// Close stops all readers and closes the client
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	subs := q.subs
	q.subs = make(map[string]*redisSub)
	q.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		<-sub.done
	}
	return q.client.Close()
}
