package queue

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaQueue_Defaults(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}}, logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "dbstats", q.cfg.GroupID)
	assert.Equal(t, 10*time.Millisecond, q.cfg.BatchTimeout)
	assert.NoError(t, q.Close())
}

func TestNewKafkaQueue_NoBrokers(t *testing.T) {
	_, err := NewKafkaQueue(KafkaConfig{}, logging.NewNop())
	assert.Error(t, err)
}

func TestKafkaQueue_WriterPerTopic(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}}, logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	a := q.writer("a")
	assert.Same(t, a, q.writer("a"))
	assert.NotSame(t, a, q.writer("b"))
}

func TestKafkaQueue_PublishSubscribe(t *testing.T) {
	brokers := os.Getenv("DBSTATS_TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("DBSTATS_TEST_KAFKA_BROKERS not set")
	}

	q, err := NewKafkaQueue(KafkaConfig{
		Brokers: strings.Split(brokers, ","),
		GroupID: "test-" + uuid.NewString(),
	}, logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	topic := "dbstats-test-" + uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// creates the topic before the group joins
	require.NoError(t, q.Publish(ctx, topic, []byte("first")))

	c := newCollector()
	require.NoError(t, q.Subscribe(topic, c.handle))
	require.NoError(t, q.Publish(ctx, topic, []byte("second")))

	assert.NotEmpty(t, c.wait(t, 1))
}
