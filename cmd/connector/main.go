package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "enrichsync/cmd/connector/docs"
	"enrichsync/internal/config"
	"enrichsync/internal/constants"
	"enrichsync/internal/logger"
	"enrichsync/pkg/logging"
)

var (
	configFile string
)

// @title        Enrichment Connector API
// @version      1.0
// @description  Receives CRM update notifications, queues profile lookups and imports prospect lists

// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  InstallID
// @in                          header
// @name                        X-Install-Id

// @securityDefinitions.apikey  InstallSecret
// @in                          header
// @name                        X-Install-Secret

func main() {
	rootCmd := &cobra.Command{
		Use:   "connector",
		Short: "Enrichment connector",
		Long:  "Enrichment connector receives CRM update notifications and queues profile lookups",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (required)")

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the connector HTTP host",
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog(constants.ServiceNameConnector)

			if configFile == "" {
				configFile = os.Getenv("CONFIG_FILE")
				if configFile == "" {
					earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
					return fmt.Errorf("config file is required")
				}
			}

			cfg, err := config.Load(configFile)
			if err != nil {
				earlyLog.Error("Failed to load config: %v", err)
				return err
			}

			log, err := logger.New(cfg.Logging, constants.ServiceNameConnector)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.InfowCtx(ctx, "Starting enrichment connector")

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.Errorw("Failed to initialize application", "error", err)
				_ = app.Shutdown(context.Background())
				return err
			}

			runErr := app.Run(ctx)
			if err := app.Shutdown(context.Background()); err != nil {
				log.Errorw("Shutdown failed", "error", err)
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				log.ErrorwCtx(ctx, "Connector stopped with error", "error", runErr)
				return runErr
			}
			log.Info("Shutdown complete")
			return nil
		},
	}
}
