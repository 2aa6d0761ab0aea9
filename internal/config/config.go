// Package config loads the gate's hierarchical configuration document:
// YAML or JSON5 files with $include merging, environment-variable expansion,
// prefix-based env overrides, strict decoding, and load-time validation.
package config

import (
	"fmt"

	"github.com/haasonsaas/sift/internal/eval"
)

// Config is the root configuration document.
type Config struct {
	Layers LayersConfig `yaml:"layers"`

	// Concurrency is the runner's worker count hint.
	Concurrency int `yaml:"concurrency"`

	// BatchSize is the runner's batch hint for batch-capable scorers.
	BatchSize int `yaml:"batch_size"`

	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LayersConfig groups per-layer sections. The gate ships one layer.
type LayersConfig struct {
	Eval eval.Config `yaml:"eval"`
}

// LoggingConfig configures the ambient logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig configures the OTLP trace exporter. An empty endpoint
// disables tracing.
type TracingConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

// Load reads, merges, overrides, decodes, defaults, and validates a config
// file. All failures here are fatal at startup.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	ApplyEnvOverrides(raw, EnvPrefix)
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	c.Layers.Eval.ApplyDefaults()
}

// Validate checks the whole document. The eval section carries its own
// validation; runner hints are checked here.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be positive, got %d", c.Concurrency)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("config: batch_size must not be negative, got %d", c.BatchSize)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("config: tracing.sampling_rate must be in [0,1], got %v", c.Tracing.SamplingRate)
	}
	if err := c.Layers.Eval.Validate(); err != nil {
		return err
	}
	return nil
}
