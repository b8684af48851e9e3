// Package config loads and saves the elbow host configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the on-disk configuration. Durations are whole milliseconds.
type Config struct {
	Store  string `yaml:"store"`
	TickMS int    `yaml:"tick_ms"`
	PollMS int    `yaml:"poll_ms"`
	Log    Log    `yaml:"log"`
	Panel  Panel  `yaml:"panel"`
}

// Log selects the logger level and the file the simulator logs to
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Panel sets how long the simulator keeps a key down for a tap and a hold
type Panel struct {
	TapMS  int `yaml:"tap_ms"`
	HoldMS int `yaml:"hold_ms"`
}

// ConfigDir returns ~/.config/elbow, falling back to the working directory
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "elbow")
}

// ConfigPath returns the default config file location
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	dir := ConfigDir()
	return &Config{
		Store:  filepath.Join(dir, "store.bin"),
		TickMS: 1,
		PollMS: 1,
		Log: Log{
			Level: "info",
			File:  filepath.Join(dir, "elbow.log"),
		},
		Panel: Panel{
			TapMS:  120,
			HoldMS: 2500,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration, creating the directory if needed
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings the control loop cannot run with
func (c *Config) Validate() error {
	if c.Store == "" {
		return errors.New("store path is empty")
	}
	if c.TickMS <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMS)
	}
	if c.PollMS <= 0 {
		return fmt.Errorf("poll_ms must be positive, got %d", c.PollMS)
	}
	if c.Panel.TapMS <= 0 || c.Panel.HoldMS <= c.Panel.TapMS {
		return fmt.Errorf("panel timings must satisfy 0 < tap_ms < hold_ms, got %d and %d", c.Panel.TapMS, c.Panel.HoldMS)
	}
	return nil
}

// Tick returns the millisecond counter period
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// Poll returns the control loop period
func (c *Config) Poll() time.Duration {
	return time.Duration(c.PollMS) * time.Millisecond
}

// Tap returns how long a simulated tap keeps a button down
func (p Panel) Tap() time.Duration {
	return time.Duration(p.TapMS) * time.Millisecond
}

// Hold returns how long a simulated hold keeps a button down
func (p Panel) Hold() time.Duration {
	return time.Duration(p.HoldMS) * time.Millisecond
}
