package queue

import (
	"fmt"
	"strings"

	"github.com/soltixdb/dbstats/internal/config"
	"github.com/soltixdb/dbstats/internal/logging"
)

// New creates the backend named by cfg.Type; an empty type selects NATS.
func New(cfg config.QueueConfig, logger *logging.Logger) (Queue, error) {
	if logger == nil {
		logger = logging.Global()
	}

	kind := Type(strings.ToLower(cfg.Type))
	if kind == "" {
		kind = TypeNATS
	}
	logger = logger.With("queue", string(kind))

	switch kind {
	case TypeNATS:
		return NewNATSQueue(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			Group:    cfg.SubjectPrefix + "-workers",
		}, logger)

	case TypeRedis:
		return NewRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		}, logger)

	case TypeKafka:
		return NewKafkaQueue(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
		}, logger)

	case TypeMemory:
		return NewMemoryQueue(logger), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", kind)
	}
}
