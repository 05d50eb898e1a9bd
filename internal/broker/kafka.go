package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"enrichsync/internal/config"
	"enrichsync/internal/constants"
	"enrichsync/internal/logger"
	"enrichsync/pkg/metrics"
	"enrichsync/pkg/models"
	"enrichsync/pkg/tracing"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaOutcomePublisher writes outcome events keyed by install and user so
// that events for one user stay ordered within a partition.
type KafkaOutcomePublisher struct {
	writer messageWriter
	topic  string
	logger logger.Logger
}

func NewKafkaOutcomePublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaOutcomePublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OutcomeTopic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,

		AllowAutoTopicCreation: true,
	}
	return &KafkaOutcomePublisher{writer: w, topic: cfg.OutcomeTopic, logger: log}
}

func (p *KafkaOutcomePublisher) PublishOutcome(ctx context.Context, event models.OutcomeEvent) (err error) {
	defer func() { metrics.IncOutcomeEvent(p.topic, err) }()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome event: %w", err)
	}

	headers := tracing.InjectTraceContext(ctx, []kafka.Header{})

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.Key()),
		Value:   body,
		Headers: headers,
		Time:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	return nil
}

func (p *KafkaOutcomePublisher) Close() error {
	return p.writer.Close()
}

type NopOutcomePublisher struct{}

func (NopOutcomePublisher) PublishOutcome(context.Context, models.OutcomeEvent) error { return nil }

func (NopOutcomePublisher) Close() error { return nil }
