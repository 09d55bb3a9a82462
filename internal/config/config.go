// Package config loads parkes server configuration from a YAML file with
// PARKES_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file `parkes serve` looks for.
const DefaultPath = "parkes.yaml"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Router   RouterConfig   `yaml:"router"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// RouterConfig configures the resource router.
type RouterConfig struct {
	Engine    string `yaml:"engine"` // internal or chi
	PoweredBy string `yaml:"powered_by"`
	NoHeaders bool   `yaml:"no_headers"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// DatabaseConfig selects the demo store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // memory or sqlite
	DSN    string `yaml:"dsn"`
	// LogQueries logs every SQL statement at debug level.
	LogQueries bool `yaml:"log_queries"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	setDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file, applies PARKES_* overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// LoadWithFallback loads path when it exists and falls back to Default plus
// environment overrides otherwise.
func LoadWithFallback(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		applyEnvOverrides(cfg)
		setDefaults(cfg)
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// Parse decodes YAML data. ${VAR} references are expanded first.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies PARKES_* environment variables. They always win
// over file values.
func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	boolean := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			*dst = parseBool(v)
		}
	}

	str("PARKES_SERVER_ADDR", &cfg.Server.Addr)
	if v := os.Getenv("PARKES_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Addr = fmt.Sprintf(":%d", port)
		}
	}
	dur("PARKES_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	dur("PARKES_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	dur("PARKES_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	dur("PARKES_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	dur("PARKES_SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)

	str("PARKES_ROUTER_ENGINE", &cfg.Router.Engine)
	str("PARKES_ROUTER_POWERED_BY", &cfg.Router.PoweredBy)
	boolean("PARKES_ROUTER_NO_HEADERS", &cfg.Router.NoHeaders)

	str("PARKES_LOG_LEVEL", &cfg.Logging.Level)
	str("PARKES_LOG_FORMAT", &cfg.Logging.Format)

	str("PARKES_DATABASE_DRIVER", &cfg.Database.Driver)
	str("PARKES_DATABASE_DSN", &cfg.Database.DSN)
	boolean("PARKES_DATABASE_LOG_QUERIES", &cfg.Database.LogQueries)

	boolean("PARKES_METRICS_ENABLED", &cfg.Metrics.Enabled)
	str("PARKES_METRICS_PATH", &cfg.Metrics.Path)
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 5 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Router.Engine == "" {
		cfg.Router.Engine = "internal"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "memory"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		cfg.Database.DSN = "parkes.db"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate rejects values the server cannot act on.
func (c *Config) Validate() error {
	switch c.Router.Engine {
	case "internal", "chi":
	default:
		return fmt.Errorf("router.engine must be 'internal' or 'chi', got %q", c.Router.Engine)
	}
	switch c.Database.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'memory' or 'sqlite', got %q", c.Database.Driver)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be 'console' or 'json', got %q", c.Logging.Format)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}
	return nil
}

// Logger builds the zerolog logger described by c, writing to w.
func (c LoggingConfig) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
