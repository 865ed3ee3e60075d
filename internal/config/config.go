// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

// Package config loads Feedweaver configuration with koanf v2, layering
// built-in defaults, an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/nabaa-media/feedweaver/internal/content"
	"github.com/nabaa-media/feedweaver/internal/recommend"
)

// Config is the root application configuration.
type Config struct {
	// Server configures the HTTP facade.
	Server ServerConfig `koanf:"server"`

	// Logging configures the global logger.
	Logging LoggingConfig `koanf:"logging"`

	// Recommend configures the recommendation core.
	Recommend recommend.Config `koanf:"recommend"`

	// Content configures the CMS primary-content client.
	Content content.Config `koanf:"content"`

	// Refresh configures the background feed pre-warm service.
	Refresh RefreshConfig `koanf:"refresh"`

	// Security configures CORS and rate limiting on the facade.
	Security SecurityConfig `koanf:"security"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Timeout is the per-request read/write timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RefreshConfig configures background pre-warming of the trending feed so
// page loads hit the response cache.
type RefreshConfig struct {
	Enabled bool `koanf:"enabled"`

	// Interval is how often the trending feed is refreshed.
	Interval time.Duration `koanf:"interval"`

	// TimeRange is the trending window requested.
	TimeRange string `koanf:"time_range"`

	// Categories pre-warms one trending fetch per listed category, plus
	// one uncategorized fetch.
	Categories []string `koanf:"categories"`
}

// SecurityConfig configures the facade's CORS policy and rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// defaultConfig returns built-in defaults, applied before file and env layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8465,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: *recommend.DefaultConfig(),
		Content:   content.DefaultConfig(),
		Refresh: RefreshConfig{
			Enabled:   true,
			Interval:  5 * time.Minute,
			TimeRange: "24h",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
	}
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if c.Refresh.Enabled && c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive when refresh is enabled, got %v", c.Refresh.Interval)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	return nil
}
