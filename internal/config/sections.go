package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/traininduction/traininduction/internal/scoring"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port string `json:"port"`
	// Environment is reported in telemetry, e.g. "production".
	Environment string `json:"environment"`
	// ReadTimeoutSeconds and WriteTimeoutSeconds bound each request.
	ReadTimeoutSeconds  int `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`
	// RankRateLimit and DefaultRateLimit are requests per minute per client IP.
	RankRateLimit    int `json:"rank_rate_limit"`
	DefaultRateLimit int `json:"default_rate_limit"`
	// RequireTLS rejects plain HTTP requests forwarded by the load balancer.
	RequireTLS bool `json:"require_tls"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 15
	}
	if c.WriteTimeoutSeconds == 0 {
		c.WriteTimeoutSeconds = 15
	}
	if c.RankRateLimit == 0 {
		c.RankRateLimit = 30
	}
	if c.DefaultRateLimit == 0 {
		c.DefaultRateLimit = 100
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	if c.ReadTimeoutSeconds < 0 || c.WriteTimeoutSeconds < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.RankRateLimit < 0 || c.DefaultRateLimit < 0 {
		return errors.New("rate limits must not be negative")
	}
	return nil
}

// ReadTimeout returns the read timeout as a duration.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ScoringConfig holds the engine tables and thresholds.
type ScoringConfig struct {
	Weights                  scoring.Weights    `json:"weights"`
	BayEfficiency            map[string]float64 `json:"bay_efficiency"`
	UnknownBayEfficiency     float64            `json:"unknown_bay_efficiency"`
	HoldStablingScore        float64            `json:"hold_stabling_score"`
	NoAdvertiser             string             `json:"no_advertiser"`
	JobCardSaturation        int                `json:"job_card_saturation"`
	JobCardConflictThreshold int                `json:"job_card_conflict_threshold"`
	ConflictPenalty          float64            `json:"conflict_penalty"`
	// Concurrency bounds parallel evaluations when ranking the fleet.
	Concurrency int `json:"concurrency"`
}

// DefaultScoring returns the standard engine settings.
func DefaultScoring() ScoringConfig {
	d := scoring.DefaultConfig()
	return ScoringConfig{
		Weights:                  d.Weights,
		BayEfficiency:            d.BayEfficiency,
		UnknownBayEfficiency:     d.UnknownBayEfficiency,
		HoldStablingScore:        d.HoldStablingScore,
		NoAdvertiser:             d.NoAdvertiser,
		JobCardSaturation:        d.JobCardSaturation,
		JobCardConflictThreshold: d.JobCardConflictThreshold,
		ConflictPenalty:          d.ConflictPenalty,
		Concurrency:              4,
	}
}

// SetDefaults applies sane defaults.
func (c *ScoringConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.BayEfficiency == nil {
		c.BayEfficiency = scoring.DefaultBayEfficiency()
	}
}

// Validate checks the engine settings.
func (c ScoringConfig) Validate() error {
	return c.Engine(nil).Validate()
}

// Engine converts the settings to an engine configuration. A nil clock uses
// time.Now.
func (c ScoringConfig) Engine(clock func() time.Time) scoring.Config {
	if clock == nil {
		clock = time.Now
	}
	return scoring.Config{
		Weights:                  c.Weights,
		BayEfficiency:            c.BayEfficiency,
		UnknownBayEfficiency:     c.UnknownBayEfficiency,
		HoldStablingScore:        c.HoldStablingScore,
		NoAdvertiser:             c.NoAdvertiser,
		JobCardSaturation:        c.JobCardSaturation,
		JobCardConflictThreshold: c.JobCardConflictThreshold,
		ConflictPenalty:          c.ConflictPenalty,
		Clock:                    clock,
	}
}

// Fingerprint identifies the engine settings. It namespaces cached scores.
func (c ScoringConfig) Fingerprint() string {
	w := c.Weights
	return fmt.Sprintf("w%.3f-%.3f-%.3f-%.3f-%.3f-%.3f:b%d:p%.3f:j%d-%d",
		w.Fitness, w.JobCard, w.Branding, w.Mileage, w.Cleaning, w.Stabling,
		len(c.BayEfficiency), c.ConflictPenalty,
		c.JobCardSaturation, c.JobCardConflictThreshold)
}

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// StoreConfig selects where trains and schedules are kept.
type StoreConfig struct {
	// Backend is "memory" or "postgres". Postgres reads DB_* variables.
	Backend string `json:"backend"`
	// SeedPath is an optional YAML fleet file for the memory backend.
	// The embedded fleet is used when empty.
	SeedPath string `json:"seed_path"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = StoreMemory
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.Backend != StoreMemory && c.Backend != StorePostgres {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	return nil
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheConfig configures the score cache.
type CacheConfig struct {
	Backend    string `json:"backend"`
	RedisURL   string `json:"redis_url"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// SetDefaults applies sane defaults.
func (c *CacheConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = CacheNone
	}
	if c.TTLSeconds == 0 {
		c.TTLSeconds = 600
	}
}

// Validate checks mandatory fields.
func (c CacheConfig) Validate() error {
	switch c.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.TTLSeconds < 0 {
		return errors.New("ttl_seconds must not be negative")
	}
	return nil
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// PubSubConfig configures Google Cloud Pub/Sub. Publishing and job
// subscription are disabled while ProjectID is empty.
type PubSubConfig struct {
	ProjectID        string `json:"project_id"`
	EventsTopic      string `json:"events_topic"`
	JobsSubscription string `json:"jobs_subscription"`
}

// Enabled reports whether a project is configured.
func (c PubSubConfig) Enabled() bool {
	return c.ProjectID != ""
}

// Validate checks mandatory fields.
func (c PubSubConfig) Validate() error {
	if c.Enabled() && c.EventsTopic == "" && c.JobsSubscription == "" {
		return errors.New("events_topic or jobs_subscription is required when project_id is set")
	}
	return nil
}

// WorkerConfig configures the background planner.
type WorkerConfig struct {
	// PlanningIntervalSeconds is the period of the fleet optimization loop
	// used when no job subscription is configured.
	PlanningIntervalSeconds int `json:"planning_interval_seconds"`
	// TimeoutSeconds bounds one job.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *WorkerConfig) SetDefaults() {
	if c.PlanningIntervalSeconds == 0 {
		c.PlanningIntervalSeconds = 3600
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 60
	}
}

// Validate checks mandatory fields.
func (c WorkerConfig) Validate() error {
	if c.PlanningIntervalSeconds < 0 || c.TimeoutSeconds < 0 {
		return errors.New("intervals must not be negative")
	}
	return nil
}

// PlanningInterval returns the planning period as a duration.
func (c WorkerConfig) PlanningInterval() time.Duration {
	return time.Duration(c.PlanningIntervalSeconds) * time.Second
}

// Timeout returns the job timeout as a duration.
func (c WorkerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `json:"enabled"`
	OTLPEndpoint string  `json:"otlp_endpoint"`
	SampleRatio  float64 `json:"sample_ratio"`
}

// SetDefaults applies sane defaults.
func (c *TelemetryConfig) SetDefaults() {
	if c.OTLPEndpoint == "" {
		c.OTLPEndpoint = "localhost:4317"
	}
	if c.SampleRatio == 0 {
		c.SampleRatio = 1
	}
}

// Validate checks mandatory fields.
func (c TelemetryConfig) Validate() error {
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("sample_ratio %f outside [0, 1]", c.SampleRatio)
	}
	return nil
}
