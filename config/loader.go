package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Load reads, decodes and validates the file at path. Keys the file leaves
// out keep their Default values.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return Parse(data, format)
}

// Parse decodes and validates data in the given format.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode toml config: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	cfg.normalize(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize canonicalizes the provider and trace backend names and resolves
// the API key from the environment.
func (c *Config) normalize(lookup func(string) (string, bool)) {
	c.Model.Provider = strings.ToLower(strings.TrimSpace(c.Model.Provider))

	c.Trace.Backend = strings.ToLower(strings.TrimSpace(c.Trace.Backend))
	if c.Trace.Backend == "" {
		c.Trace.Backend = TraceBackendRecorder
	}

	if c.Model.APIKey == "" && c.Model.APIKeyEnv != "" {
		if v, ok := lookup(c.Model.APIKeyEnv); ok {
			c.Model.APIKey = strings.TrimSpace(v)
		}
	}
}
