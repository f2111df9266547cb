package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix shared by every environment variable (FIF_LOG_LEVEL, ...)
const EnvPrefix = "FIF"

// Config holds process-level configuration.
// Pipeline semantics (features, scores, profiles, manifest) live in the
// pipeline YAML, not here.
type Config struct {
	Env string `envconfig:"ENV" default:"development"` // development, staging, production

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Data
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	HTTP HTTPConfig `envconfig:"HTTP"`

	Database DatabaseConfig `envconfig:"DATABASE"`

	// API
	APIPort string `envconfig:"API_PORT" default:"8089"`

	// Monitoring
	MetricsFile string `envconfig:"METRICS_FILE"`
}

// HTTPConfig tunes the download client used by the fetcher (FIF_HTTP_*)
type HTTPConfig struct {
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"60s"`
	RatePerSecond float64       `envconfig:"RATE_PER_SECOND" default:"2"`
	MaxRetries    int           `envconfig:"MAX_RETRIES" default:"3"`
}

// DatabaseConfig holds PostgreSQL configuration for the ranking sink (FIF_DATABASE_*)
type DatabaseConfig struct {
	URL string `envconfig:"URL"`

	// Connection Pool
	MaxConns        int32         `envconfig:"MAX_CONNS" default:"10"`
	MinConns        int32         `envconfig:"MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"MAX_CONN_IDLE_TIME" default:"30m"`
}

// Load reads configuration from the environment, after loading a .env file
// when one is found
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration with every default applied and no
// environment lookup. Useful in tests and for commands that must run
// without a .env file.
func Default() *Config {
	return &Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "json",
		DataDir:   "data",
		HTTP: HTTPConfig{
			Timeout:       60 * time.Second,
			RatePerSecond: 2,
			MaxRetries:    3,
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		APIPort: "8089",
	}
}

// RequireDatabase reports an error when no database URL is configured
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("%s_DATABASE_URL is required", EnvPrefix)
	}
	return nil
}

// validate checks value ranges. The database URL is optional: only the
// publish command needs it.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("HTTP_MAX_RETRIES must be >= 0")
	}
	if c.HTTP.RatePerSecond <= 0 {
		return fmt.Errorf("HTTP_RATE_PER_SECOND must be > 0")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DATABASE_MIN_CONNS must be <= DATABASE_MAX_CONNS")
	}
	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}
