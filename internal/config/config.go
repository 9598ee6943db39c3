// Package config provides configuration loading for sparse-ca.
// It supports loading from YAML files, environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"sparse-ca/internal/arena"
	"sparse-ca/internal/camera"
	"sparse-ca/internal/engine"
	"sparse-ca/internal/grid"
	"sparse-ca/internal/logging"
	"sparse-ca/internal/patterns"
)

// Config contains all sparse-ca settings.
type Config struct {
	// Engine sizes the cell stores and the worker.
	Engine EngineConfig `yaml:"engine"`

	// Sim controls what is seeded and how fast it runs.
	Sim SimConfig `yaml:"sim"`

	// Window configures the GUI viewport.
	Window WindowConfig `yaml:"window"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig sizes the double buffer.
type EngineConfig struct {
	// Buckets is the bucket count of each store. Must be a power of two.
	Buckets int `yaml:"buckets"`

	// Hash selects the bucket hash: "mix" (default) or "linear".
	Hash string `yaml:"hash"`

	// Arena sizes the overflow node pools.
	Arena ArenaConfig `yaml:"arena"`

	// ShutdownTimeout bounds how long shutdown waits for the worker.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// SlowStep logs generations slower than this at debug level.
	SlowStep time.Duration `yaml:"slow_step"`
}

// ArenaConfig sizes an overflow node pool, in nodes.
type ArenaConfig struct {
	Initial   int `yaml:"initial"`
	Limit     int `yaml:"limit"`
	Increment int `yaml:"increment"`
}

// SimConfig controls seeding and pacing.
type SimConfig struct {
	// Tick is the interval between generation requests while running.
	Tick time.Duration `yaml:"tick"`

	// Pattern is the registered pattern stamped at the origin on start.
	// Empty starts with a blank grid.
	Pattern string `yaml:"pattern"`

	// Seed drives random patterns.
	Seed int64 `yaml:"seed"`

	// Paused starts the GUI paused.
	Paused bool `yaml:"paused"`
}

// WindowConfig configures the GUI viewport.
type WindowConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
	// HUD is the width of the stats panel in pixels; 0 hides it.
	HUD int `yaml:"hud"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", "trace",
	// "warn" or "error".
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	a := arena.DefaultConfig()
	e := engine.DefaultConfig()
	return &Config{
		Engine: EngineConfig{
			Buckets:         e.Buckets,
			Hash:            "mix",
			Arena:           ArenaConfig{Initial: a.Initial, Limit: a.Limit, Increment: a.Increment},
			ShutdownTimeout: e.ShutdownTimeout,
			SlowStep:        e.SlowStep,
		},
		Sim: SimConfig{
			Tick:    100 * time.Millisecond,
			Pattern: "r-pentomino",
			Seed:    42,
			Paused:  false,
		},
		Window: WindowConfig{
			Width:  1000,
			Height: 1000,
			Scale:  camera.DefaultScale,
			HUD:    220,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath is ~/.sparse-ca/config.yaml, or "" when the home directory is
// unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sparse-ca", "config.yaml")
}

// Load builds the configuration. Order: defaults -> file -> environment.
// An empty path reads DefaultPath when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			fileConfig, err := LoadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			config = fileConfig
		case explicit || !errors.Is(statErr, os.ErrNotExist):
			return nil, fmt.Errorf("loading config file: %w", statErr)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if n := c.Engine.Buckets; n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("buckets must be a positive power of two, got %d", n)
	}
	if _, err := grid.HasherByName(c.Engine.Hash); err != nil {
		return fmt.Errorf("invalid hash: %w", err)
	}
	a := c.Engine.Arena
	if a.Initial < 0 || a.Increment < 0 || a.Limit < 0 {
		return fmt.Errorf("arena sizes must be non-negative, got %+v", a)
	}
	if a.Limit > 0 && a.Initial > a.Limit {
		return fmt.Errorf("arena initial %d exceeds limit %d", a.Initial, a.Limit)
	}
	if c.Engine.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %v", c.Engine.ShutdownTimeout)
	}
	if c.Sim.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", c.Sim.Tick)
	}
	if c.Sim.Pattern != "" {
		if _, err := patterns.Lookup(c.Sim.Pattern); err != nil {
			return err
		}
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.Scale < camera.MinScale || c.Window.Scale > camera.MaxScale {
		return fmt.Errorf("scale must be between %v and %v, got %v", camera.MinScale, camera.MaxScale, c.Window.Scale)
	}
	if c.Window.HUD < 0 {
		return fmt.Errorf("hud width must be non-negative, got %d", c.Window.HUD)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, warn, error, or empty for default)", c.Logging.Level)
	}
	return nil
}

// EngineConfig converts the engine section for engine.New.
func (c *Config) EngineConfig(log *slog.Logger) (engine.Config, error) {
	h, err := grid.HasherByName(c.Engine.Hash)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		Buckets: c.Engine.Buckets,
		Hasher:  h,
		Arena: arena.Config{
			Initial:   c.Engine.Arena.Initial,
			Limit:     c.Engine.Arena.Limit,
			Increment: c.Engine.Arena.Increment,
		},
		ShutdownTimeout: c.Engine.ShutdownTimeout,
		SlowStep:        c.Engine.SlowStep,
		Logger:          log,
	}, nil
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.IntVar(&c.Engine.Buckets, "buckets", c.Engine.Buckets, "bucket count per store (power of two)")
	fs.StringVar(&c.Engine.Hash, "hash", c.Engine.Hash, "bucket hash: mix or linear")
	fs.DurationVar(&c.Engine.ShutdownTimeout, "shutdown-timeout", c.Engine.ShutdownTimeout, "how long to wait for the worker on exit")
	fs.DurationVar(&c.Sim.Tick, "tick", c.Sim.Tick, "interval between generations")
	fs.StringVar(&c.Sim.Pattern, "pattern", c.Sim.Pattern, "pattern stamped at the origin")
	fs.Int64Var(&c.Sim.Seed, "seed", c.Sim.Seed, "seed for random patterns")
	fs.IntVar(&c.Window.Width, "width", c.Window.Width, "viewport width in pixels")
	fs.IntVar(&c.Window.Height, "height", c.Window.Height, "viewport height in pixels")
	fs.Float64Var(&c.Window.Scale, "scale", c.Window.Scale, "cells per pixel, between 0.05 and 1")
	fs.StringVar(&c.Logging.Level, "log-level", c.Logging.Level, "log level: info, debug, trace, warn, error")
}

// ApplyFlags copies every flag explicitly set on fs onto c. It lets values
// loaded from file and environment sit under the command line.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	own := pflag.NewFlagSet("config", pflag.ContinueOnError)
	c.Bind(own)
	var err error
	fs.Visit(func(f *pflag.Flag) {
		target := own.Lookup(f.Name)
		if target == nil || err != nil {
			return
		}
		if setErr := target.Value.Set(f.Value.String()); setErr != nil {
			err = fmt.Errorf("flag --%s: %w", f.Name, setErr)
		}
	})
	return err
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SPARSECA_BUCKETS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Engine.Buckets = n
		}
	}
	if v := os.Getenv("SPARSECA_HASH"); v != "" {
		config.Engine.Hash = v
	}
	if v := os.Getenv("SPARSECA_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Engine.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("SPARSECA_ARENA_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Engine.Arena.Limit = n
		}
	}
	if v := os.Getenv("SPARSECA_TICK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Sim.Tick = d
		}
	}
	if v, ok := os.LookupEnv("SPARSECA_PATTERN"); ok {
		config.Sim.Pattern = v
	}
	if v := os.Getenv("SPARSECA_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Sim.Seed = n
		}
	}
	if v := os.Getenv("SPARSECA_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Window.Width = n
		}
	}
	if v := os.Getenv("SPARSECA_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Window.Height = n
		}
	}
	if v := os.Getenv("SPARSECA_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
