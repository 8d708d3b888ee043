package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "EVR_"

// DefaultSafetyBufferKm is preset before unmarshalling; an explicit 0 disables
// the buffer.
const DefaultSafetyBufferKm = 10.0

type Config struct {
	Server    ServerConfig    `json:"server"`
	Log       LogConfig       `json:"log"`
	Routing   RoutingConfig   `json:"routing"`
	Cache     CacheConfig     `json:"cache"`
	Stations  StationsConfig  `json:"stations"`
	Planner   PlannerConfig   `json:"planner"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

type ServerConfig struct {
	Addr              string        `json:"addr"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
}

type LogConfig struct {
	Env   string `json:"env"`
	Level string `json:"level"`
}

// RoutingConfig selects the directions provider. Provider "none" or an empty
// API key disables routing and every estimate falls back to great-circle.
type RoutingConfig struct {
	Provider    string        `json:"provider"`
	APIKey      string        `json:"api_key"`
	BaseURL     string        `json:"base_url"`
	Profile     string        `json:"profile"`
	Timeout     time.Duration `json:"timeout"`
	MaxAttempts int           `json:"max_attempts"`
}

// CacheConfig bounds the in-process distance cache. RedisAddr enables a shared
// second tier.
type CacheConfig struct {
	MaxEntries    int           `json:"max_entries"`
	TTL           time.Duration `json:"ttl"`
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	RedisTTL      time.Duration `json:"redis_ttl"`
}

type StationsConfig struct {
	Driver         string  `json:"driver"`
	DSN            string  `json:"dsn"`
	SeedPath       string  `json:"seed_path"`
	BBoxPaddingDeg float64 `json:"bbox_padding_deg"`
}

type PlannerConfig struct {
	MaxConcurrency int     `json:"max_concurrency"`
	FilterRadiusKm float64 `json:"filter_radius_km"`
	SafetyBufferKm float64 `json:"safety_buffer_km"`
	MaxViable      int     `json:"max_viable"`
	MaxScored      int     `json:"max_scored"`
}

type TelemetryConfig struct {
	TracingEnabled bool    `json:"tracing_enabled"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	ServiceName    string  `json:"service_name"`
}

// Load reads the optional file at path, applies EVR_ environment overrides
// (EVR_ROUTING__API_KEY -> routing.api_key), then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if strings.TrimSpace(path) != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil, fmt.Errorf("load config: unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config: read %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load config: env overrides: %w", err)
	}

	cfg := Config{Planner: PlannerConfig{SafetyBufferKm: DefaultSafetyBufferKm}}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}

// Default returns a fully defaulted configuration.
func Default() Config {
	cfg := Config{Planner: PlannerConfig{SafetyBufferKm: DefaultSafetyBufferKm}}
	cfg.SetDefaults()
	return cfg
}

func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":" + Get("PORT", "8080")
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	// Cold-cache planning issues many sequential provider calls.
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.Log.Env == "" {
		c.Log.Env = Get("APP_ENV", "production")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Routing.Provider == "" {
		c.Routing.Provider = "google"
	}
	if c.Routing.Timeout == 0 {
		c.Routing.Timeout = 10 * time.Second
	}
	if c.Routing.MaxAttempts == 0 {
		c.Routing.MaxAttempts = 1
	}
	if c.Routing.Profile == "" {
		c.Routing.Profile = "driving-car"
	}

	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 100_000
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.Cache.RedisTTL == 0 {
		c.Cache.RedisTTL = 7 * 24 * time.Hour
	}

	if c.Stations.Driver == "" {
		c.Stations.Driver = "sqlite"
	}
	if c.Stations.DSN == "" && c.Stations.Driver == "sqlite" {
		c.Stations.DSN = "data/stations.db"
	}
	if c.Stations.BBoxPaddingDeg == 0 {
		c.Stations.BBoxPaddingDeg = 0.1
	}

	if c.Planner.MaxConcurrency == 0 {
		c.Planner.MaxConcurrency = 4
	}
	if c.Planner.FilterRadiusKm == 0 {
		c.Planner.FilterRadiusKm = 2
	}
	if c.Planner.MaxViable == 0 {
		c.Planner.MaxViable = 5
	}
	if c.Planner.MaxScored == 0 {
		c.Planner.MaxScored = 10
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "charging-route-service"
	}
	if c.Telemetry.OTLPEndpoint == "" {
		c.Telemetry.OTLPEndpoint = "localhost:4317"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1
	}
}

func (c Config) Validate() error {
	var errs []error

	switch c.Routing.Provider {
	case "google", "ors", "none":
	default:
		errs = append(errs, fmt.Errorf("routing.provider: unknown provider %q", c.Routing.Provider))
	}
	if c.Routing.Timeout < 0 {
		errs = append(errs, errors.New("routing.timeout must not be negative"))
	}
	if c.Routing.MaxAttempts < 1 {
		errs = append(errs, errors.New("routing.max_attempts must be at least 1"))
	}

	if c.Cache.MaxEntries < 0 {
		errs = append(errs, errors.New("cache.max_entries must not be negative"))
	}

	switch c.Stations.Driver {
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Stations.DSN) == "" {
			errs = append(errs, fmt.Errorf("stations.dsn is required for driver %q", c.Stations.Driver))
		}
	case "memory":
		if strings.TrimSpace(c.Stations.SeedPath) == "" {
			errs = append(errs, errors.New("stations.seed_path is required for driver \"memory\""))
		}
	default:
		errs = append(errs, fmt.Errorf("stations.driver: unknown driver %q", c.Stations.Driver))
	}
	if c.Stations.BBoxPaddingDeg < 0 {
		errs = append(errs, errors.New("stations.bbox_padding_deg must not be negative"))
	}

	if c.Planner.MaxConcurrency < 1 {
		errs = append(errs, errors.New("planner.max_concurrency must be at least 1"))
	}
	if c.Planner.FilterRadiusKm <= 0 {
		errs = append(errs, errors.New("planner.filter_radius_km must be positive"))
	}
	if c.Planner.SafetyBufferKm < 0 {
		errs = append(errs, errors.New("planner.safety_buffer_km must not be negative"))
	}
	if c.Planner.MaxViable < 1 || c.Planner.MaxScored < 1 {
		errs = append(errs, errors.New("planner.max_viable and planner.max_scored must be at least 1"))
	}

	return errors.Join(errs...)
}

// RoutingEnabled reports whether a directions provider should be built.
func (c Config) RoutingEnabled() bool {
	return c.Routing.Provider != "none" && strings.TrimSpace(c.Routing.APIKey) != ""
}

// Get returns the environment value of key or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
