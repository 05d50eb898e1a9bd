package broker

import (
	"enrichsync/internal/config"
	"enrichsync/internal/logger"
)

// NewOutcomePublisher returns a Kafka publisher when the outcome stream is
// configured and a no-op publisher otherwise.
func NewOutcomePublisher(cfg config.KafkaConfig, log logger.Logger) OutcomePublisher {
	if !cfg.OutcomeStreamEnabled() {
		log.Infow("Outcome stream disabled")
		return NopOutcomePublisher{}
	}

	log.Infow("Outcome stream enabled",
		"brokers", cfg.Brokers,
		"topic", cfg.OutcomeTopic,
	)
	return NewKafkaOutcomePublisher(cfg, log)
}
