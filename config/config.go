package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Sim     SimConfig     `toml:"sim"`
	Logging LoggingConfig `toml:"logging"`
	Prefabs PrefabsConfig `toml:"prefabs"`
	Window  WindowConfig  `toml:"window"`
	Metrics MetricsConfig `toml:"metrics"`
}

type SimConfig struct {
	TPS        int     `toml:"tps" env:"WALKABOUT_TPS"`
	FixedDelta float64 `toml:"fixed_delta" env:"WALKABOUT_FIXED_DELTA"` // seconds per headless tick
	Workers    int     `toml:"workers" env:"WALKABOUT_WORKERS"`         // 1 = drivers stepped inline
	MaxTicks   int     `toml:"max_ticks" env:"WALKABOUT_MAX_TICKS"`     // headless safety cap
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"WALKABOUT_LOG_LEVEL"`
	Format string `toml:"format" env:"WALKABOUT_LOG_FORMAT"` // "json" or "console"
}

type PrefabsConfig struct {
	Dir       string   `toml:"dir" env:"WALKABOUT_PREFABS_DIR"`
	Walkers   []string `toml:"walkers" env:"WALKABOUT_WALKERS" envSeparator:","`
	HotReload bool     `toml:"hot_reload" env:"WALKABOUT_HOT_RELOAD"`
}

type WindowConfig struct {
	Width  int    `toml:"width" env:"WALKABOUT_WINDOW_WIDTH"`
	Height int    `toml:"height" env:"WALKABOUT_WINDOW_HEIGHT"`
	Title  string `toml:"title"`
}

type MetricsConfig struct {
	Addr string `toml:"addr" env:"WALKABOUT_METRICS_ADDR"`
}

// Load reads path over the defaults, then applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Sim.TPS <= 0:
		return fmt.Errorf("%w: sim.tps must be positive, got %d", ErrInvalidConfig, c.Sim.TPS)
	case c.Sim.FixedDelta <= 0 || math.IsNaN(c.Sim.FixedDelta) || math.IsInf(c.Sim.FixedDelta, 0):
		return fmt.Errorf("%w: sim.fixed_delta must be a positive number, got %v", ErrInvalidConfig, c.Sim.FixedDelta)
	case c.Sim.Workers < 1:
		return fmt.Errorf("%w: sim.workers must be at least 1, got %d", ErrInvalidConfig, c.Sim.Workers)
	case c.Sim.MaxTicks < 1:
		return fmt.Errorf("%w: sim.max_ticks must be at least 1, got %d", ErrInvalidConfig, c.Sim.MaxTicks)
	case len(c.Prefabs.Walkers) == 0:
		return fmt.Errorf("%w: prefabs.walkers is empty", ErrInvalidConfig)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Sim: SimConfig{
			TPS:        60,
			FixedDelta: 0.1,
			Workers:    1,
			MaxTicks:   100000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Prefabs: PrefabsConfig{
			Dir:     "prefabs",
			Walkers: []string{"walker.yaml"},
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "walkabout",
		},
	}
}
