// Package config loads kernel configuration from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Providers accepted in ModelConfig.Provider. The empty provider runs
// without a model port.
var Providers = []string{"", "anthropic", "openai", "scripted"}

// Config is the complete kernel configuration.
type Config struct {
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
	Model      ModelConfig      `toml:"model" yaml:"model"`
	Resilience ResilienceConfig `toml:"resilience" yaml:"resilience"`
	Memory     MemoryConfig     `toml:"memory" yaml:"memory"`
	Trace      TraceConfig      `toml:"trace" yaml:"trace"`
}

// LoggingConfig selects the log backend.
type LoggingConfig struct {
	Level     string `toml:"level" yaml:"level"`
	Format    string `toml:"format" yaml:"format"`   // json or text
	Backend   string `toml:"backend" yaml:"backend"` // slog or bolt
	AddSource bool   `toml:"add_source" yaml:"add_source"`
}

// ModelConfig selects and tunes the model port.
type ModelConfig struct {
	Provider    string  `toml:"provider" yaml:"provider"`
	Name        string  `toml:"name" yaml:"name"`
	Temperature float64 `toml:"temperature" yaml:"temperature"`
	MaxTokens   int64   `toml:"max_tokens" yaml:"max_tokens"`
	APIKey      string  `toml:"api_key" yaml:"api_key"`
	// APIKeyEnv names an environment variable holding the API key. It is
	// consulted when APIKey is empty.
	APIKeyEnv string `toml:"api_key_env" yaml:"api_key_env"`
	BaseURL   string `toml:"base_url" yaml:"base_url"`
}

// ResilienceConfig configures the port decorators.
type ResilienceConfig struct {
	RetryMaxAttempts  int           `toml:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryInitialDelay time.Duration `toml:"retry_initial_delay" yaml:"retry_initial_delay"`
	RetryMultiplier   float64       `toml:"retry_multiplier" yaml:"retry_multiplier"`
	BreakerThreshold  int           `toml:"breaker_threshold" yaml:"breaker_threshold"`
	BreakerTimeout    time.Duration `toml:"breaker_timeout" yaml:"breaker_timeout"`
	RateLimit         int           `toml:"rate_limit" yaml:"rate_limit"`
	// RateBurst is the token bucket capacity; zero uses RateLimit.
	RateBurst int `toml:"rate_burst" yaml:"rate_burst"`
	// MaxModelCalls caps model calls per run; zero is unlimited.
	MaxModelCalls int `toml:"max_model_calls" yaml:"max_model_calls"`
}

// MemoryConfig configures the in-memory memory port.
type MemoryConfig struct {
	Enabled         bool `toml:"enabled" yaml:"enabled"`
	CaseInsensitive bool `toml:"case_insensitive" yaml:"case_insensitive"`
}

// Trace backends accepted in TraceConfig.Backend.
const (
	TraceBackendRecorder = "recorder"
	TraceBackendOtel     = "otel"
)

// TraceConfig selects the evidence tracer.
type TraceConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Backend string `toml:"backend" yaml:"backend"` // recorder or otel
	// ServiceName is the otel instrumentation scope; empty uses the default.
	ServiceName string `toml:"service_name" yaml:"service_name"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Backend: "slog",
		},
		Model: ModelConfig{
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Resilience: ResilienceConfig{
			RetryMaxAttempts:  3,
			RetryInitialDelay: 100 * time.Millisecond,
			RetryMultiplier:   2.0,
			BreakerThreshold:  5,
			BreakerTimeout:    30 * time.Second,
		},
		Memory: MemoryConfig{Enabled: true},
		Trace:  TraceConfig{Backend: TraceBackendRecorder},
	}
}

// Validate reports every problem found, joined, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	add := func(path, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, fmt.Sprintf(format, args...)))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "trace", "info", "warn", "warning", "error":
	default:
		add("logging.level", "unknown level %q", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		add("logging.format", "must be json or text, got %q", c.Logging.Format)
	}

	if c.Logging.Backend != "slog" && c.Logging.Backend != "bolt" {
		add("logging.backend", "must be slog or bolt, got %q", c.Logging.Backend)
	}

	if !slices.Contains(Providers, c.Model.Provider) {
		add("model.provider", "unknown provider %q", c.Model.Provider)
	}

	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		add("model.temperature", "must be within [0, 2], got %v", c.Model.Temperature)
	}

	if c.Model.MaxTokens < 0 {
		add("model.max_tokens", "must not be negative")
	}

	r := c.Resilience
	if r.RetryMaxAttempts < 0 {
		add("resilience.retry_max_attempts", "must not be negative")
	}
	if r.RetryMaxAttempts > 1 && r.RetryMultiplier < 1 {
		add("resilience.retry_multiplier", "must be >= 1")
	}
	if r.RetryInitialDelay < 0 || r.BreakerTimeout < 0 {
		add("resilience", "durations must not be negative")
	}
	if r.BreakerThreshold < 0 || r.RateLimit < 0 || r.RateBurst < 0 || r.MaxModelCalls < 0 {
		add("resilience", "limits must not be negative")
	}

	switch c.Trace.Backend {
	case "", TraceBackendRecorder, TraceBackendOtel:
	default:
		add("trace.backend", "must be recorder or otel, got %q", c.Trace.Backend)
	}

	return errors.Join(errs...)
}
