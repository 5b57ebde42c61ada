// Package queue carries analysis requests into the service and computed
// summaries out of it. Backends: NATS (default), Redis Streams, Kafka and an
// in-process memory queue for tests and single-node runs.
package queue

import (
	"context"
	"errors"
)

// Type names a queue backend
type Type string

const (
	TypeNATS   Type = "nats"
	TypeRedis  Type = "redis"
	TypeKafka  Type = "kafka"
	TypeMemory Type = "memory"
)

var (
	// ErrAlreadySubscribed is returned when a subject already has a handler.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrNotSubscribed is returned by Unsubscribe for an unknown subject.
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("queue closed")
)

// Message is one delivered payload
type Message struct {
	Subject string
	Data    []byte
}

// Handler processes a delivered message. A non-nil error leaves the message
// unacknowledged on backends that support redelivery.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends payloads to a subject (NATS subject, Redis stream, Kafka topic)
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// Subscriber delivers payloads of a subject to a handler
type Subscriber interface {
	Subscribe(subject string, handler Handler) error
	Unsubscribe(subject string) error
	Close() error
}

// Queue is both
type Queue interface {
	Publisher
	Subscriber
}
