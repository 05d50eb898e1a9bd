package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"enrichsync/internal/config"
	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/logger"
	"enrichsync/internal/tokencache"
	"enrichsync/pkg/bootstrap"
	"enrichsync/pkg/health"
	"enrichsync/pkg/metrics"
	"enrichsync/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	redis          *redis.Client
	worker         *enrichment.Worker
	tracerProvider *tracing.Provider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	a.redis = rdb

	if err := a.InitBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(ctx, a.Config.Tracing, constants.ServiceNameWorker)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterWorkerMetrics()

	client := provider.WrapWithCircuitBreaker(provider.NewHTTPClient(a.Config.Provider), "snov", a.Config.CircuitBreaker)
	tokens := enrichment.NewTokenResolver(tokencache.New(a.redis), client, a.Logger)
	mapper, err := enrichment.NewMapper(a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create mapper: %w", err)
	}
	a.worker = enrichment.NewWorker(client, tokens, crm.NewHTTPFactory(a.Config.CRM, a.Logger), mapper, a.Lane, a.Outcomes, a.Logger)

	a.initHTTPServer()
	return nil
}

func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewRedisChecker(a.redis))
	healthRegistry.Register(health.NewAMQPChecker(a.Conn))
	if a.Config.Broker.Kafka.OutcomeStreamEnabled() {
		healthRegistry.RegisterOptional(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(h)
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.Logger.InfowCtx(gCtx, "Consuming lookup lane",
			"lane", a.Lane.Name(),
		)
		return a.worker.Run(gCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(a.redis, nil)...)
		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
