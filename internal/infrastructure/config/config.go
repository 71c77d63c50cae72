package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all kiosk backend configuration.
type Config struct {
	Server    ServerConfig
	NLU       NLUConfig
	Speech    SpeechConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Cart      CartConfig
	Checkout  CheckoutConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port"`
	Host string `envconfig:"HOST" toml:"host"`
}

// NLUConfig holds intent classification service configuration.
type NLUConfig struct {
	URL     string        `envconfig:"NLU_URL" toml:"url"`
	Timeout time.Duration `envconfig:"NLU_TIMEOUT" toml:"timeout"`
	// Consecutive primary failures before the breaker trips to the local matcher.
	BreakerThreshold int           `envconfig:"NLU_BREAKER_THRESHOLD" toml:"breaker_threshold"`
	BreakerCooldown  time.Duration `envconfig:"NLU_BREAKER_COOLDOWN" toml:"breaker_cooldown"`
}

// SpeechConfig holds speech synthesis service configuration.
type SpeechConfig struct {
	URL            string        `envconfig:"SPEECH_URL" toml:"url"`
	Timeout        time.Duration `envconfig:"SPEECH_TIMEOUT" toml:"timeout"`
	Voice          string        `envconfig:"SPEECH_VOICE" toml:"voice"`
	HealthInterval time.Duration `envconfig:"SPEECH_HEALTH_INTERVAL" toml:"health_interval"`
	// Simulated synthesis duration per character when the service is unavailable.
	SimulatedPerChar time.Duration `envconfig:"SPEECH_SIM_PER_CHAR" toml:"simulated_per_char"`
	FeedbackHide     time.Duration `envconfig:"SPEECH_FEEDBACK_HIDE" toml:"feedback_hide"`
}

// RedisConfig holds cart persistence configuration.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" toml:"addr"`
	Password string `envconfig:"REDIS_PASSWORD" toml:"password"`
	DB       int    `envconfig:"REDIS_DB" toml:"db"`
	Enabled  bool   `envconfig:"REDIS_ENABLED" toml:"enabled"`
}

// CatalogConfig holds menu catalog configuration.
type CatalogConfig struct {
	Path string `envconfig:"CATALOG_PATH" toml:"path"`
}

// CartConfig holds cart lifecycle configuration.
type CartConfig struct {
	// Persisted snapshots older than this are discarded on hydration.
	Freshness time.Duration `envconfig:"CART_FRESHNESS" toml:"freshness"`
}

// CheckoutConfig holds checkout settlement configuration.
type CheckoutConfig struct {
	SettlementDelay time.Duration `envconfig:"CHECKOUT_SETTLEMENT_DELAY" toml:"settlement_delay"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
}

// Load loads configuration: optional TOML file first, then environment
// variables on top. Environment always wins.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// loadFile overlays values from a TOML config file. A missing file is not
// an error; a malformed one is.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		NLU: NLUConfig{
			URL:              "http://localhost:5005",
			Timeout:          3 * time.Second,
			BreakerThreshold: 3,
			BreakerCooldown:  30 * time.Second,
		},
		Speech: SpeechConfig{
			URL:              "http://localhost:8001",
			Timeout:          10 * time.Second,
			Voice:            "af_heart",
			HealthInterval:   15 * time.Second,
			SimulatedPerChar: 50 * time.Millisecond,
			FeedbackHide:     2 * time.Second,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			DB:      0,
			Enabled: true,
		},
		Catalog: CatalogConfig{
			Path: "menu.yaml",
		},
		Cart: CartConfig{
			Freshness: 24 * time.Hour,
		},
		Checkout: CheckoutConfig{
			SettlementDelay: 3 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
