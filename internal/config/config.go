// Package config holds the runtime configuration for the veldt host.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "50ms" as well as plain nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		if ns, numErr := strconv.ParseInt(s, 10, 64); numErr == nil {
			*d = Duration(ns)
			return nil
		}
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root runtime configuration.
type Config struct {
	LogLevel     string          `yaml:"log_level"`
	TickInterval Duration        `yaml:"tick_interval"`
	Store        StoreConfig     `yaml:"store"`
	Scheduler    SchedulerConfig `yaml:"scheduler"`
}

// StoreConfig configures the root entity store.
type StoreConfig struct {
	// InitialCapacity pre-sizes the root store and the id maps.
	InitialCapacity int `yaml:"initial_capacity"`
}

// SchedulerConfig configures system dependency resolution.
type SchedulerConfig struct {
	// StrictDependencies promotes unmet dependency names from warnings to
	// load-time errors. Dependency cycles are errors regardless.
	StrictDependencies bool `yaml:"strict_dependencies"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		TickInterval: Duration(50 * time.Millisecond),
		Store: StoreConfig{
			InitialCapacity: 256,
		},
	}
}

// Load reads and validates a YAML configuration file. Fields absent from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval.Std())
	}
	if c.Store.InitialCapacity < 0 {
		return fmt.Errorf("store.initial_capacity must not be negative, got %d", c.Store.InitialCapacity)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
