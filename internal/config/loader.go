package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"enrichsync/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.redis.port", 6379)
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.sslmode", "disable")

	viper.SetDefault("broker.amqp.lane", constants.DefaultLookupLane)
	viper.SetDefault("broker.amqp.prefetch", 1)
	viper.SetDefault("broker.amqp.consumer_tag", "enrichment-worker")
	viper.SetDefault("broker.amqp.publish_retry.max_attempts", 3)
	viper.SetDefault("broker.amqp.publish_retry.initial_interval", "200ms")
	viper.SetDefault("broker.amqp.publish_retry.max_interval", "2s")
	viper.SetDefault("broker.amqp.publish_retry.multiplier", 2.0)

	viper.SetDefault("provider.base_url", constants.DefaultProviderBaseURL)
	viper.SetDefault("provider.timeout", constants.DefaultProviderTimeout.String())

	viper.SetDefault("crm.scheme", "https")
	viper.SetDefault("crm.timeout", constants.DefaultCRMTimeout.String())
	viper.SetDefault("crm.retry.max_attempts", 3)
	viper.SetDefault("crm.retry.initial_interval", "250ms")
	viper.SetDefault("crm.retry.max_interval", "2s")
	viper.SetDefault("crm.retry.multiplier", 2.0)

	viper.SetDefault("connector.status_cache_ttl", constants.ConnectorAuthCacheTTL.String())
	viper.SetDefault("connector.rate_limit.rps", 10.0)
	viper.SetDefault("connector.rate_limit.burst", 20)
	viper.SetDefault("connector.rate_limit.cleanup_interval", "5m")
	viper.SetDefault("connector.rate_limit.max_age", "10m")

	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", "60s")
	viper.SetDefault("circuit_breaker.timeout", "30s")
	viper.SetDefault("circuit_breaker.failure_ratio", 0.5)
	viper.SetDefault("circuit_breaker.min_requests", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

func bindEnvVariables() {
	viper.BindEnv("broker.amqp.url", "BROKER_AMQP_URL")
	viper.BindEnv("broker.amqp.lane", "BROKER_AMQP_LANE")
	viper.BindEnv("broker.amqp.prefetch", "BROKER_AMQP_PREFETCH")
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.outcome_topic", "BROKER_KAFKA_OUTCOME_TOPIC")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")
	viper.BindEnv("database.run_migrations", "DATABASE_RUN_MIGRATIONS")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("provider.base_url", "PROVIDER_BASE_URL")
	viper.BindEnv("provider.timeout", "PROVIDER_TIMEOUT")
	viper.BindEnv("crm.scheme", "CRM_SCHEME")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

// applyEnvOverrides handles values viper cannot split on its own.
func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	cfg.Provider.BaseURL = strings.TrimRight(cfg.Provider.BaseURL, "/")

	return nil
}
