package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_notifications_total",
			Help: "Total number of update messages received by the connector (count)",
		},
		[]string{"object_type", "batch"},
	)

	FilterDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_decisions_total",
			Help: "Total number of filter decisions by operation (count)",
		},
		[]string{"object_type", "operation"},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_submissions_total",
			Help: "Total number of lookups submitted to the provider by result (count)",
		},
		[]string{"result"},
	)

	WorkerOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_outcomes_total",
			Help: "Total number of queue messages processed by outcome (count)",
		},
		[]string{"outcome"},
	)

	WorkerProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_processing_duration_ms",
			Help:    "Processing duration for one queue message in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"outcome"},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of requests to the enrichment provider (count)",
		},
		[]string{"operation", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_ms",
			Help:    "Duration of enrichment provider requests in milliseconds",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"operation"},
	)

	TokenCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_cache_lookups_total",
			Help: "Total number of access token cache lookups (count)",
		},
		[]string{"result"},
	)

	CRMWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_writes_total",
			Help: "Total number of attribute write requests sent to the CRM (count)",
		},
		[]string{"object_type", "status"},
	)

	MessageQueueSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "message_queue_size",
			Help: "Messages ready in the lane as last reported by the worker (count)",
		},
		[]string{"lane"},
	)

	QueuePublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_published_total",
			Help: "Total number of messages published to a lane (count)",
		},
		[]string{"lane", "status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "operation"},
	)

	OutcomeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outcome_events_total",
			Help: "Total number of enrichment outcome events written to Kafka (count)",
		},
		[]string{"topic", "status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries (count)",
		},
		[]string{"database", "operation", "status"},
	)

	DatabaseQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_ms",
			Help:    "Duration of database queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"database", "operation"},
	)
)

var (
	sharedOnce sync.Once
)

// registerShared registers collectors used by both binaries exactly once.
func registerShared() {
	sharedOnce.Do(func() {
		prometheus.MustRegister(ProviderRequestsTotal)
		prometheus.MustRegister(ProviderRequestDuration)
		prometheus.MustRegister(TokenCacheLookupsTotal)
		prometheus.MustRegister(CRMWritesTotal)
		prometheus.MustRegister(RetryAttemptsTotal)
		prometheus.MustRegister(OutcomeEventsTotal)
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
		prometheus.MustRegister(DatabaseQueriesTotal)
		prometheus.MustRegister(DatabaseQueryDuration)
	})
}

func RegisterConnectorMetrics() {
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(FilterDecisionsTotal)
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(QueuePublishedTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
	registerShared()
}

func RegisterWorkerMetrics() {
	prometheus.MustRegister(WorkerOutcomesTotal)
	prometheus.MustRegister(WorkerProcessingDuration)
	prometheus.MustRegister(MessageQueueSize)
	registerShared()
}

func ObserveWorkerDuration(duration time.Duration, outcome string) {
	WorkerProcessingDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

func ObserveProviderRequest(operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	ProviderRequestsTotal.WithLabelValues(operation, status).Inc()
	ProviderRequestDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

func ObserveDatabaseQuery(database, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueriesTotal.WithLabelValues(database, operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(database, operation).Observe(float64(duration.Milliseconds()))
}

func SetMessageQueueSize(lane string, size int) {
	MessageQueueSize.WithLabelValues(lane).Set(float64(size))
}

func IncWorkerOutcome(outcome string) {
	WorkerOutcomesTotal.WithLabelValues(outcome).Inc()
}

func IncFilterDecision(objectType, operation string) {
	FilterDecisionsTotal.WithLabelValues(objectType, operation).Inc()
}

func IncSubmission(result string) {
	SubmissionsTotal.WithLabelValues(result).Inc()
}

func IncTokenCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	TokenCacheLookupsTotal.WithLabelValues(result).Inc()
}

func IncCRMWrite(objectType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CRMWritesTotal.WithLabelValues(objectType, status).Inc()
}

func IncQueuePublished(lane string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	QueuePublishedTotal.WithLabelValues(lane, status).Inc()
}

func IncOutcomeEvent(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	OutcomeEventsTotal.WithLabelValues(topic, status).Inc()
}
