package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tair/catalog-console/internal/config"
	"github.com/tair/catalog-console/internal/console"
	"github.com/tair/catalog-console/pkg/logger"
	"github.com/tair/catalog-console/pkg/tracing"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("product_api", cfg.ProductAPIURL).
		Str("storage", cfg.StorageDriver).
		Msg("Starting Catalog Console")

	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName: cfg.ServiceName,
		Version:     version,
		Environment: cfg.Environment,
		Endpoint:    cfg.JaegerEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	app, cleanup, err := console.InitializeConsole(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize console")
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go app.Registry.Run(ctx, time.Minute)

	if app.Consumer != nil {
		if err := app.Consumer.Start(ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to start Kafka consumer")
		}
	}

	go func() {
		logger.Logger.Info().Str("addr", app.Ops.Addr).Msg("Ops server starting (/metrics, /health)")
		if err := app.Ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Ops server failed")
		}
	}()

	go func() {
		addr := ":" + cfg.Port
		logger.Logger.Info().Str("addr", addr).Msg("Console starting")
		if err := app.App.Listen(addr); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down Catalog Console...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.App.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Console forced to shutdown")
	}
	if err := app.Ops.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Ops server forced to shutdown")
	}

	logger.Logger.Info().Msg("Catalog Console stopped")
}
