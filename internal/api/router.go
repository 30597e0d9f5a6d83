// Package api provides the HTTP API for the induction service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/api/handler"
	"github.com/traininduction/traininduction/internal/api/middleware"
	"github.com/traininduction/traininduction/internal/induction"
	"github.com/traininduction/traininduction/internal/resilience"
	"github.com/traininduction/traininduction/internal/schedule"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	InductionService *induction.Service
	ScheduleService  *schedule.Service

	// Registry reports circuit breaker state on /v1/ops/status. Optional.
	Registry *resilience.Registry
	// ReadinessChecks run on /v1/ops/ready and /v1/ops/status.
	ReadinessChecks []handler.Check

	// RequireTLS rejects plain HTTP requests other than ops probes.
	RequireTLS bool

	// Zero values select middleware.RankingRateLimit and middleware.StandardRateLimit.
	RankingRateLimit  middleware.RateLimitConfig
	StandardRateLimit middleware.RateLimitConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "induction-api"
	}
	if cfg.RankingRateLimit.RequestLimit == 0 {
		cfg.RankingRateLimit = middleware.RankingRateLimit
	}
	if cfg.StandardRateLimit.RequestLimit == 0 {
		cfg.StandardRateLimit = middleware.StandardRateLimit
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(serviceName, cfg.Version, cfg.BuildTime, cfg.Registry, cfg.ReadinessChecks...)
	metadataHandler := handler.NewMetadataHandler(cfg.InductionService.Engine())
	trainHandler := handler.NewTrainHandler(cfg.InductionService, cfg.Logger)
	inductionHandler := handler.NewInductionHandler(cfg.InductionService, cfg.Logger)
	scheduleHandler := handler.NewScheduleHandler(cfg.ScheduleService, cfg.Logger)

	// Create rate limit middleware for different endpoint categories
	rankingRateLimit := middleware.RateLimitByIP(cfg.RankingRateLimit)   // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(cfg.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (unlimited, polled by the platform)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)

			r.Get("/metadata/enums", metadataHandler.GetEnums)

			r.Route("/trains", func(r chi.Router) {
				r.Get("/", trainHandler.ListTrains)
				r.Get("/{trainId}", trainHandler.GetTrain)
			})

			r.With(middleware.RequireJSON).Post("/induction:score", inductionHandler.ScoreTrain)

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", scheduleHandler.ListSchedules)
				r.With(middleware.RequireJSON).Post("/", scheduleHandler.CreateSchedule)
				r.Get("/{scheduleId}", scheduleHandler.GetSchedule)
			})
		})

		// Fleet-wide evaluation - expensive compute, strict rate limiting
		r.Group(func(r chi.Router) {
			r.Use(rankingRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/induction:rank", inductionHandler.RankFleet)
			r.Post("/induction:optimize", inductionHandler.OptimizeFleet)
		})
	})

	return r
}
