// Package app assembles the induction services from configuration. The API
// server, the worker and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/api/handler"
	"github.com/traininduction/traininduction/internal/cache"
	"github.com/traininduction/traininduction/internal/config"
	"github.com/traininduction/traininduction/internal/database"
	"github.com/traininduction/traininduction/internal/events"
	"github.com/traininduction/traininduction/internal/fleet"
	"github.com/traininduction/traininduction/internal/induction"
	"github.com/traininduction/traininduction/internal/resilience"
	"github.com/traininduction/traininduction/internal/schedule"
	"github.com/traininduction/traininduction/internal/scoring"
)

// App holds the wired services and everything that must be closed with them.
type App struct {
	Engine    *scoring.Engine
	Induction *induction.Service
	Schedules *schedule.Service
	Registry  *resilience.Registry
	// Checks are the readiness probes of the configured backends.
	Checks []handler.Check

	closers []func() error
}

// Options adjust how New wires the services.
type Options struct {
	// SkipPublisher leaves events unpublished even when Pub/Sub is configured.
	SkipPublisher bool
}

// New builds every service described by cfg. The caller must call Close.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	engine, err := scoring.NewEngine(cfg.Scoring.Engine(nil))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	a := &App{Engine: engine, Registry: resilience.NewRegistry()}
	if err := a.build(ctx, cfg, logger, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) error {
	fleetRepo, scheduleRepo, err := a.stores(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	a.Checks = append(a.Checks, handler.Check{Name: "fleet-store", Ping: fleetRepo.Ping})

	scoreCache, err := a.scoreCache(cfg.Cache)
	if err != nil {
		return err
	}
	if scoreCache != nil {
		a.Checks = append(a.Checks, handler.Check{Name: "score-cache", Ping: scoreCache.Ping})
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.PubSub.Enabled() && cfg.PubSub.EventsTopic != "" && !opts.SkipPublisher {
		pub, err := events.NewPubSubPublisher(ctx, events.PubSubConfig{
			ProjectID: cfg.PubSub.ProjectID,
			Topic:     cfg.PubSub.EventsTopic,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		a.Registry.Register(pub.Executor())
		a.closers = append(a.closers, pub.Close)
		publisher = pub
		logger.Info().Str("topic", cfg.PubSub.EventsTopic).Msg("event publisher initialized")
	}

	a.Induction, err = induction.NewService(induction.ServiceConfig{
		Engine:         a.Engine,
		Fleet:          fleetRepo,
		Cache:          scoreCache,
		CacheNamespace: cfg.Scoring.Fingerprint(),
		Publisher:      publisher,
		Concurrency:    cfg.Scoring.Concurrency,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	a.Schedules = schedule.NewService(schedule.ServiceConfig{
		Repository: scheduleRepo,
		Scorer:     a.Induction,
		Publisher:  publisher,
		Logger:     logger,
	})
	return nil
}

func (a *App) stores(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (fleet.Repository, schedule.Repository, error) {
	switch cfg.Backend {
	case config.StorePostgres:
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig, logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		logger.Info().
			Str("target", dbConfig.Redacted()).
			Msg("database connected")

		if err := database.Migrate(ctx, pool, logger); err != nil {
			return nil, nil, err
		}

		fleetRepo := fleet.NewResilientRepository(fleet.NewPostgresRepository(pool), resilience.DefaultPolicy("fleet-store"))
		a.Registry.Register(fleetRepo.Executor())

		if cfg.SeedPath != "" {
			trains, err := loadSeedFile(cfg.SeedPath)
			if err != nil {
				return nil, nil, err
			}
			for i := range trains {
				if err := fleetRepo.Upsert(ctx, &trains[i]); err != nil {
					return nil, nil, fmt.Errorf("seed train %s: %w", trains[i].ID, err)
				}
			}
			logger.Info().Int("trains", len(trains)).Str("path", cfg.SeedPath).Msg("fleet seeded")
		}
		return fleetRepo, schedule.NewPostgresRepository(pool), nil

	case config.StoreMemory:
		trains, err := fleet.DefaultFleet()
		if cfg.SeedPath != "" {
			trains, err = loadSeedFile(cfg.SeedPath)
		}
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Int("trains", len(trains)).Msg("in-memory fleet loaded")
		return fleet.NewInMemoryRepository(trains...), schedule.NewInMemoryRepository(), nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func (a *App) scoreCache(cfg config.CacheConfig) (cache.ScoreCache, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(cache.RedisConfig{URL: cfg.RedisURL, TTL: cfg.TTL()})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		return rc, nil
	case config.CacheMemory:
		return cache.NewInMemoryCache(cfg.TTL()), nil
	}
	return nil, nil
}

func loadSeedFile(path string) ([]scoring.TrainRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	trains, err := fleet.LoadSeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trains, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
