package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"enrichsync/internal/config"
	"enrichsync/internal/logger"
	"enrichsync/pkg/logging"
	"enrichsync/pkg/metrics"
	"enrichsync/pkg/retry"
	"enrichsync/pkg/tracing"
)

var ErrLaneClosed = errors.New("lane delivery channel closed")

// Channel is the subset of *amqp.Channel the lane needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueInspect(name string) (amqp.Queue, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

var _ Channel = (*amqp.Channel)(nil)

// Lane is a durable queue of lookup jobs. Publishing is safe for concurrent
// use; consuming is meant for a single goroutine.
type Lane struct {
	ch          Channel
	name        string
	prefetch    int
	consumerTag string
	policy      retry.Policy
	logger      logger.Logger

	mu sync.Mutex
}

func NewLane(ch Channel, cfg config.AMQPConfig, log logger.Logger) (*Lane, error) {
	if _, err := ch.QueueDeclare(cfg.Lane, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare lane %s: %w", cfg.Lane, err)
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Lane{
		ch:          ch,
		name:        cfg.Lane,
		prefetch:    prefetch,
		consumerTag: cfg.ConsumerTag,
		policy:      retry.DefaultPolicy().WithConfig(cfg.Publish),
		logger:      log,
	}, nil
}

func (l *Lane) Name() string {
	return l.name
}

func (l *Lane) Publish(ctx context.Context, body []byte, correlationID string) error {
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.New().String(),
		CorrelationId: correlationID,
		Timestamp:     time.Now().UTC(),
		Headers:       tracing.InjectAMQPHeaders(ctx, amqp.Table{}),
		Body:          body,
	}

	err := retry.RetryWithCallback(ctx, l.policy, func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.ch.Publish("", l.name, false, false, msg)
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues("amqp", l.name).Inc()
		l.logger.WarnwCtx(ctx, "Retrying lane publish",
			"attempt", attempt,
			"max_attempts", l.policy.MaxAttempts,
			"next_delay", nextDelay,
			"error", err,
			"lane", l.name,
		)
	})
	metrics.IncQueuePublished(l.name, err)
	if err != nil {
		return fmt.Errorf("failed to publish to lane %s: %w", l.name, err)
	}

	l.logger.DebugwCtx(ctx, "Published lookup job",
		"lane", l.name,
		"message_id", msg.MessageId,
	)
	return nil
}

// Consume blocks, handing deliveries to handler one at a time until ctx is
// cancelled or the channel closes. The handler settles each delivery.
func (l *Lane) Consume(ctx context.Context, handler HandlerFunc) error {
	if err := l.ch.Qos(l.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch on lane %s: %w", l.name, err)
	}

	deliveries, err := l.ch.Consume(l.name, l.consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume lane %s: %w", l.name, err)
	}

	l.logger.InfowCtx(ctx, "Started consuming",
		"lane", l.name,
		"prefetch", l.prefetch,
	)

	for {
		select {
		case <-ctx.Done():
			l.logger.InfowCtx(ctx, "Stopped consuming",
				"lane", l.name,
				"reason", "context canceled",
			)
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrLaneClosed
			}
			l.dispatch(ctx, d, handler)
		}
	}
}

func (l *Lane) dispatch(ctx context.Context, d amqp.Delivery, handler HandlerFunc) {
	msgCtx, span := tracing.StartSpanFromDelivery(ctx, "amqp.consume", d.Headers)
	defer span.End()

	msgCtx = logging.WithMessageID(msgCtx, d.MessageId)
	if d.CorrelationId != "" {
		msgCtx = logging.WithCorrelationKey(msgCtx, d.CorrelationId)
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		msgCtx = logging.WithTraceID(msgCtx, sc.TraceID().String())
	}

	if err := handler(msgCtx, &amqpDelivery{d: d}); err != nil {
		l.logger.ErrorwCtx(msgCtx, "Lookup job handler failed",
			"error", err,
			"lane", l.name,
		)
	}
}

// MessageCount reports the number of ready messages on the lane.
func (l *Lane) MessageCount() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	q, err := l.ch.QueueInspect(l.name)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect lane %s: %w", l.name, err)
	}
	return q.Messages, nil
}

func (l *Lane) Close() error {
	return l.ch.Close()
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (a *amqpDelivery) Body() []byte { return a.d.Body }
func (a *amqpDelivery) MessageID() string { return a.d.MessageId }
func (a *amqpDelivery) CorrelationID() string { return a.d.CorrelationId }
func (a *amqpDelivery) Headers() amqp.Table { return a.d.Headers }
func (a *amqpDelivery) Redelivered() bool { return a.d.Redelivered }
func (a *amqpDelivery) Ack() error { return a.d.Ack(false) }
func (a *amqpDelivery) Reject(requeue bool) error { return a.d.Reject(requeue) }
