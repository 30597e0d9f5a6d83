// Package config loads service settings from an optional YAML or JSON file
// with INDUCTION_ environment overrides.
//
// Environment keys map to config paths by lower-casing and replacing "__"
// with ".": INDUCTION_SCORING__WEIGHTS__FITNESS sets scoring.weights.fitness.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "INDUCTION_"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Scoring   ScoringConfig   `json:"scoring"`
	Store     StoreConfig     `json:"store"`
	Cache     CacheConfig     `json:"cache"`
	PubSub    PubSubConfig    `json:"pubsub"`
	Worker    WorkerConfig    `json:"worker"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg := &Config{Scoring: DefaultScoring()}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Scoring.SetDefaults()
	c.Store.SetDefaults()
	c.Cache.SetDefaults()
	c.Worker.SetDefaults()
	c.Telemetry.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	validators := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"scoring", c.Scoring.Validate},
		{"store", c.Store.Validate},
		{"cache", c.Cache.Validate},
		{"pubsub", c.PubSub.Validate},
		{"worker", c.Worker.Validate},
		{"telemetry", c.Telemetry.Validate},
	}
	for _, v := range validators {
		if err := v.fn(); err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
	}
	return nil
}

// Load reads path (when non-empty) and then environment overrides on top of
// the defaults. Keys absent from both keep their default values; bay
// efficiency entries are merged into the default table.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{Scoring: DefaultScoring()}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
