// Package config handles engine configuration and persisted session state.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Config is the engine configuration, loaded from a YAML file with
// environment variable overrides applied on top.
type Config struct {
	Listen   string                `yaml:"listen" env:"PLAYERD_LISTEN"`
	Sources  []models.StreamSource `yaml:"sources"`
	Fallback FallbackConfig        `yaml:"fallback"`
	Retry    RetryConfig           `yaml:"retry"`
	Metadata MetadataConfig        `yaml:"metadata"`
}

// FallbackConfig is the static now-playing metadata used when the stream
// provides none. May be overridden by remote configuration at startup.
type FallbackConfig struct {
	Title      string `yaml:"title" env:"PLAYERD_FALLBACK_TITLE"`
	Artist     string `yaml:"artist" env:"PLAYERD_FALLBACK_ARTIST"`
	ArtworkRef string `yaml:"artwork" env:"PLAYERD_FALLBACK_ARTWORK"`
}

// RetryConfig tunes the retry policy. The defaults mirror observed
// behavior but are deliberately configuration, not contract.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"PLAYERD_RETRY_MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"PLAYERD_RETRY_BASE_DELAY"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"PLAYERD_RETRY_MAX_DELAY"`
	OpenTimeout time.Duration `yaml:"open_timeout" env:"PLAYERD_OPEN_TIMEOUT"`
}

// MetadataConfig tunes the now-playing metadata poller.
type MetadataConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"PLAYERD_POLL_INTERVAL"`
}

// Default returns a Config with all tunables at their defaults and no
// sources configured.
func Default() Config {
	return Config{
		Listen: ":8097",
		Fallback: FallbackConfig{
			Title: "Trend Ankara",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
			OpenTimeout: 10 * time.Second,
		},
		Metadata: MetadataConfig{
			PollInterval: 5 * time.Second,
		},
	}
}

// Load reads the YAML config at path, applies env overrides, validates and
// normalizes it. A missing file is not an error: env-only configuration is
// allowed.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("env overrides: %w", err)
	}

	// A single source may also come from the environment.
	if url := os.Getenv("PLAYERD_STREAM_URL"); url != "" {
		cfg.Sources = append(cfg.Sources, models.StreamSource{Name: "env", URL: url})
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize orders sources by priority (stable for equal priorities) and
// backfills zero tunables with defaults.
func (c *Config) normalize() {
	sort.SliceStable(c.Sources, func(i, j int) bool {
		return c.Sources[i].Priority < c.Sources[j].Priority
	})

	def := Default()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = def.Retry.BaseDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = def.Retry.MaxDelay
	}
	if c.Retry.OpenTimeout <= 0 {
		c.Retry.OpenTimeout = def.Retry.OpenTimeout
	}
	if c.Metadata.PollInterval <= 0 {
		c.Metadata.PollInterval = def.Metadata.PollInterval
	}
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: no stream sources configured")
	}
	for i, s := range c.Sources {
		if s.URL == "" {
			return fmt.Errorf("config: source %d has no url", i)
		}
	}
	return nil
}

// FallbackMetadata returns the configured fallback as NowPlayingMetadata.
func (c *Config) FallbackMetadata() models.NowPlayingMetadata {
	return models.NowPlayingMetadata{
		Title:      c.Fallback.Title,
		Artist:     c.Fallback.Artist,
		ArtworkRef: c.Fallback.ArtworkRef,
	}
}
