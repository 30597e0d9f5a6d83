// Package main provides the entrypoint for the induction API server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/api"
	"github.com/traininduction/traininduction/internal/api/middleware"
	"github.com/traininduction/traininduction/internal/app"
	"github.com/traininduction/traininduction/internal/config"
	"github.com/traininduction/traininduction/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "induction-api"

	configPath := flag.String("config", os.Getenv("INDUCTION_CONFIG"), "path to a YAML or JSON config file")
	flag.Parse()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting induction API")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Attributes: map[string]string{
			"induction.scoring_config": cfg.Scoring.Fingerprint(),
			"induction.store":          cfg.Store.Backend,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics(nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	services, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		os.Exit(1)
	}
	defer func() {
		if closeErr := services.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close services")
		}
	}()
	log.Info().
		Str("store", cfg.Store.Backend).
		Str("cache", cfg.Cache.Backend).
		Str("scoring_config", cfg.Scoring.Fingerprint()).
		Msg("induction services initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           metrics,
		InductionService:  services.Induction,
		ScheduleService:   services.Schedules,
		Registry:          services.Registry,
		ReadinessChecks:   services.Checks,
		RequireTLS:        cfg.Server.RequireTLS,
		RankingRateLimit:  middleware.PerMinute(cfg.Server.RankRateLimit),
		StandardRateLimit: middleware.PerMinute(cfg.Server.DefaultRateLimit),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
