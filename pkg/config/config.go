// Package config holds the budget-api configuration and the hot-reloaded
// policy override layer.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full budget-api configuration. Precedence: defaults, then
// the YAML file, then SCOTBUDGET_* environment variables, then flags.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Overrides OverridesConfig `yaml:"overrides"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Address        string   `yaml:"address" env:"SCOTBUDGET_ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"SCOTBUDGET_ALLOWED_ORIGINS" envSeparator:","`
}

// TelemetryConfig holds configuration for metrics and tracing.
type TelemetryConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled" env:"SCOTBUDGET_METRICS_ENABLED"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" env:"SCOTBUDGET_OTLP_ENDPOINT"`
	ServiceName    string `yaml:"service_name" env:"SCOTBUDGET_SERVICE_NAME"`
	Insecure       bool   `yaml:"insecure" env:"SCOTBUDGET_OTLP_INSECURE"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"SCOTBUDGET_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"SCOTBUDGET_LOG_PRETTY"`
}

// OverridesConfig points at the watched policy override file. Empty disables
// the watcher and the service runs on built-in policy values.
type OverridesConfig struct {
	File string `yaml:"file" env:"SCOTBUDGET_OVERRIDES_FILE"`
}

// Default returns the configuration the service runs with when nothing else
// is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":8080",
			AllowedOrigins: []string{"*"},
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: true,
			ServiceName:    "scottish-budget-api",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional file and applies environment
// variable overrides. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs validation of the entire configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry configuration: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}

	return nil
}

// Validate performs validation of server configuration.
func (c *ServerConfig) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = ":8080"
	}

	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	for i, origin := range c.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("allowed origin %d is empty", i)
		}
	}

	return nil
}

// Validate performs validation of telemetry configuration.
func (c *TelemetryConfig) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = "scottish-budget-api"
	}
	return nil
}

// Validate performs validation of logging configuration.
func (c *LoggingConfig) Validate() error {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = "info"
	}

	level := strings.TrimSpace(strings.ToLower(c.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Level = level
		return nil
	default:
		return fmt.Errorf("invalid log level %q, supported levels: debug, info, warn, error", c.Level)
	}
}
