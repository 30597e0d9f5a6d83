// Package main provides the entrypoint for the fleet planning worker.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/app"
	"github.com/traininduction/traininduction/internal/config"
	"github.com/traininduction/traininduction/internal/telemetry"
	"github.com/traininduction/traininduction/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "induction-worker"

	configPath := flag.String("config", os.Getenv("INDUCTION_CONFIG"), "path to a YAML or JSON config file")
	flag.Parse()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().Str("build_time", BuildTime).Msg("starting induction worker")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	services, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		return
	}
	defer func() {
		if closeErr := services.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close services")
		}
	}()

	job := worker.NewPlanningJob(worker.PlanningJobConfig{
		Config: worker.PlanningConfig{
			Timeout: cfg.Worker.Timeout(),
			Now:     services.Engine.Now,
		},
		Logger:    log,
		Optimizer: services.Induction,
	})

	// Worker also exposes health endpoint for Cloud Run
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"metrics": job.MetricsSnapshot(),
		}
		if err := job.HealthCheck(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["error"] = err.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	// Start health check server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Start worker loop
	go func() {
		if cfg.PubSub.Enabled() && cfg.PubSub.JobsSubscription != "" {
			handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
				ProjectID:        cfg.PubSub.ProjectID,
				SubscriptionName: cfg.PubSub.JobsSubscription,
				Jobs:             worker.NewJobHandler(job, log),
				Logger:           log,
			})
			if err != nil {
				log.Error().Err(err).Msg("failed to create pubsub handler")
				cancel()
				return
			}
			defer func() { _ = handler.Close() }()

			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub receive stopped")
				cancel()
			}
			return
		}

		log.Info().
			Dur("interval", cfg.Worker.PlanningInterval()).
			Msg("no job subscription configured, planning on a timer")
		job.Loop(ctx, cfg.Worker.PlanningInterval())
	}()

	// Wait for interrupt signal or a fatal worker error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
