package bootstrap

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"

	"enrichsync/internal/broker"
	"enrichsync/internal/config"
	"enrichsync/internal/logger"
)

// Base owns what both binaries share: config, logger, the lookup lane and
// the outcome stream.
type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	Conn     *amqp.Connection
	Lane     *broker.Lane
	Outcomes broker.OutcomePublisher
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

// InitBroker connects to the AMQP server, declares the lookup lane and
// opens the outcome stream.
func (b *Base) InitBroker() error {
	conn, err := amqp.Dial(b.Config.Broker.AMQP.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	lane, err := broker.NewLane(ch, b.Config.Broker.AMQP, b.Logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	b.Conn = conn
	b.Lane = lane
	b.Outcomes = broker.NewOutcomePublisher(b.Config.Broker.Kafka, b.Logger)

	b.Logger.Infow("Lookup lane ready",
		"lane", lane.Name(),
	)
	return nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	if b.Lane != nil {
		if err := b.Lane.Close(); err != nil {
			errs = append(errs, fmt.Errorf("lane close error: %w", err))
		}
	}

	if b.Conn != nil && !b.Conn.IsClosed() {
		if err := b.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp connection close error: %w", err))
		}
	}

	if b.Outcomes != nil {
		if err := b.Outcomes.Close(); err != nil {
			errs = append(errs, fmt.Errorf("outcome publisher close error: %w", err))
		}
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	errs = append(errs, b.ShutdownBroker()...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
