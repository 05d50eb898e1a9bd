package broker

import (
	"context"

	"github.com/streadway/amqp"

	"enrichsync/pkg/models"
)

// Publisher puts one job on the lookup lane.
type Publisher interface {
	Publish(ctx context.Context, body []byte, correlationID string) error
}

// Delivery is a single lane message awaiting settlement. Exactly one of Ack
// or Reject must be called.
type Delivery interface {
	Body() []byte
	MessageID() string
	CorrelationID() string
	Headers() amqp.Table
	Redelivered() bool
	Ack() error
	Reject(requeue bool) error
}

type HandlerFunc func(ctx context.Context, d Delivery) error

type Consumer interface {
	Consume(ctx context.Context, handler HandlerFunc) error
	MessageCount() (int, error)
	Name() string
}

// OutcomePublisher streams settled job outcomes to interested parties.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, event models.OutcomeEvent) error
	Close() error
}
