// Package config provides configuration management for swfplayer using
// Viper. It supports configuration from files, environment variables, and
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultFrameRate       = 12.0
	defaultLoadBehavior    = "streaming"
	defaultFetchTimeout    = 30 * time.Second
	defaultRetryAttempts   = 3
	defaultRetryDelay      = 1 * time.Second
	defaultMaxResponseSize = 64 * 1024 * 1024 // 64MB
	defaultExecutorQueue   = 64
	defaultUserAgent       = "swfplayer/1.0"
)

// Config holds all configuration for the player process.
type Config struct {
	Player  PlayerConfig  `mapstructure:"player"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PlayerConfig holds runtime behavior configuration.
type PlayerConfig struct {
	// FrameRate is the fallback frame rate before a root movie arrives.
	FrameRate float64 `mapstructure:"frame_rate"`

	// LoadBehavior is one of streaming, delayed, blocking.
	LoadBehavior string `mapstructure:"load_behavior"`

	// SpoofedURL overrides the root movie's reported URL when set.
	SpoofedURL string `mapstructure:"spoofed_url"`

	// RewriteRules maps URL prefixes to replacements for per-site
	// compatibility.
	RewriteRules map[string]string `mapstructure:"rewrite_rules"`

	// ExecutorQueue bounds pending load futures.
	ExecutorQueue int `mapstructure:"executor_queue"`
}

// FetchConfig holds navigator configuration.
type FetchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxResponseSize int64         `mapstructure:"max_response_size"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// SetDefaults registers default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("player.frame_rate", defaultFrameRate)
	v.SetDefault("player.load_behavior", defaultLoadBehavior)
	v.SetDefault("player.spoofed_url", "")
	v.SetDefault("player.executor_queue", defaultExecutorQueue)
	v.SetDefault("fetch.timeout", defaultFetchTimeout)
	v.SetDefault("fetch.retry_attempts", defaultRetryAttempts)
	v.SetDefault("fetch.retry_delay", defaultRetryDelay)
	v.SetDefault("fetch.max_response_size", defaultMaxResponseSize)
	v.SetDefault("fetch.user_agent", defaultUserAgent)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
}

// Load reads configuration from the given viper instance into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.Player.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("player.frame_rate must be positive, got %v", c.Player.FrameRate))
	}
	switch c.Player.LoadBehavior {
	case "streaming", "delayed", "blocking":
	default:
		errs = append(errs, fmt.Errorf("player.load_behavior must be streaming, delayed, or blocking, got %q", c.Player.LoadBehavior))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must be positive, got %v", c.Fetch.Timeout))
	}
	if c.Fetch.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("fetch.retry_attempts must not be negative, got %d", c.Fetch.RetryAttempts))
	}
	if c.Fetch.MaxResponseSize < 0 {
		errs = append(errs, fmt.Errorf("fetch.max_response_size must not be negative, got %d", c.Fetch.MaxResponseSize))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
