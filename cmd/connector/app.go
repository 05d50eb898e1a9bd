package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"enrichsync/internal/config"
	"enrichsync/internal/connector"
	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	"enrichsync/internal/tokencache"
	"enrichsync/pkg/bootstrap"
	"enrichsync/pkg/health"
	"enrichsync/pkg/metrics"
	"enrichsync/pkg/middleware"
	"enrichsync/pkg/ratelimit"
	"enrichsync/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	redis          *redis.Client
	postgresDB     *sql.DB
	limiters       *ratelimit.Limiters
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

	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	a.postgresDB = db

	if err := a.InitBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(ctx, a.Config.Tracing, constants.ServiceNameConnector)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterConnectorMetrics()

	handler, err := a.buildHandler()
	if err != nil {
		return err
	}
	a.initHTTPServer(handler)
	return nil
}

func (a *App) buildHandler() (*connector.Handler, error) {
	client := provider.WrapWithCircuitBreaker(provider.NewHTTPClient(a.Config.Provider), "snov", a.Config.CircuitBreaker)
	cache := tokencache.New(a.redis)
	tokens := enrichment.NewTokenResolver(cache, client, a.Logger)
	crmFactory := crm.NewHTTPFactory(a.Config.CRM, a.Logger)

	mapper, err := enrichment.NewMapper(a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapper: %w", err)
	}

	agent := enrichment.NewSyncAgent(client, tokens, crmFactory, a.Lane, mapper, a.Outcomes, a.Logger)
	status := enrichment.NewStatusService(cache, crmFactory, a.Config.Connector.StatusCacheTTL, a.Logger)
	prospects := enrichment.NewProspectImporter(client, tokens, crmFactory, mapper, a.Logger)

	return connector.NewHandler(install.NewRepository(a.postgresDB), agent, status, prospects, a.Logger), nil
}

func (a *App) initHTTPServer(handler *connector.Handler) {
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(a.Logger),
		middleware.CorrelationMiddleware(),
		tracing.GinMiddleware(constants.ServiceNameConnector),
		middleware.LoggerMiddleware(a.Logger),
	)

	if a.Config.Connector.RateLimit.Enabled {
		a.limiters = ratelimit.NewLimiters(a.Config.Connector.RateLimit)
		router.Use(a.limiters.Middleware())
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewRedisChecker(a.redis))
	healthRegistry.Register(health.NewPostgreSQLChecker(a.postgresDB))
	healthRegistry.Register(health.NewAMQPChecker(a.Conn))
	if a.Config.Broker.Kafka.OutcomeStreamEnabled() {
		healthRegistry.RegisterOptional(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
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

	if a.limiters != nil {
		g.Go(func() error {
			a.limiters.RunCleanup(gCtx)
			return nil
		})
	}

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

		errs = append(errs, a.dbConnector.ShutdownDatabases(a.redis, a.postgresDB)...)
		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
