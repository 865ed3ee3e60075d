// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"fmt"
	"time"
)

// Config holds all tunables for the recommendation core.
type Config struct {
	// Client configures feed retrieval from the ranking backend.
	Client ClientConfig `koanf:"client"`

	// Breaker configures the circuit breaker guarding the backend.
	Breaker BreakerConfig `koanf:"breaker"`

	// Tracker configures interaction telemetry.
	Tracker TrackerConfig `koanf:"tracker"`

	// Mixer configures where recommendation cards are injected into the
	// primary stream. The position table is editorial policy, never
	// hard-coded into the mixer.
	Mixer MixerConfig `koanf:"mixer"`

	// Analytics configures session-counter flushing.
	Analytics AnalyticsConfig `koanf:"analytics"`
}

// ClientConfig configures the recommendation client.
type ClientConfig struct {
	// BaseURL is the ranking backend base URL.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds a single fetch round-trip.
	Timeout time.Duration `koanf:"timeout"`

	// CacheTTL is how long a successful response stays fresh.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CacheSize is the maximum number of cached (feed, params) responses.
	CacheSize int `koanf:"cache_size"`

	// DefaultLimit is the per-feed candidate count requested when the
	// caller does not specify one.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the per-feed candidate count.
	MaxLimit int `koanf:"max_limit"`
}

// BreakerConfig configures the sony/gobreaker circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the number of probes allowed in half-open state.
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval is the cyclic reset period for failure counts.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `koanf:"timeout"`

	// FailureThreshold is the consecutive-failure count that trips the
	// breaker open.
	FailureThreshold uint32 `koanf:"failure_threshold"`
}

// TrackerConfig configures interaction telemetry.
type TrackerConfig struct {
	// DebounceWindow suppresses duplicate (article, type) events recorded
	// within this window.
	DebounceWindow time.Duration `koanf:"debounce_window"`

	// QueueSize bounds the async delivery queue. When full, events are
	// dropped rather than blocking the caller.
	QueueSize int `koanf:"queue_size"`

	// PostsPerSecond paces outbound telemetry POSTs.
	PostsPerSecond float64 `koanf:"posts_per_second"`

	// PostBurst is the telemetry rate limiter burst size.
	PostBurst int `koanf:"post_burst"`
}

// MixerConfig configures content mixing.
type MixerConfig struct {
	// Positions is the injection table for one mixing pass. AfterItem
	// values must be positive and strictly increasing.
	Positions []MixPosition `koanf:"positions"`
}

// AnalyticsConfig configures session-analytics flushing.
type AnalyticsConfig struct {
	// FlushInterval is how often batched view events are posted to the
	// backend.
	FlushInterval time.Duration `koanf:"flush_interval"`

	// MaxBatch caps the number of article IDs per flush.
	MaxBatch int `koanf:"max_batch"`
}

// DefaultConfig returns production defaults. The default position table
// spreads cards after items 3, 6, 9, 13 and 17 so personalized content
// never clusters at the top or bottom of the page.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:      "http://127.0.0.1:8090",
			Timeout:      5 * time.Second,
			CacheTTL:     2 * time.Minute,
			CacheSize:    512,
			DefaultLimit: 10,
			MaxLimit:     50,
		},
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         30 * time.Second,
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
		},
		Tracker: TrackerConfig{
			DebounceWindow: 2 * time.Second,
			QueueSize:      256,
			PostsPerSecond: 20,
			PostBurst:      40,
		},
		Mixer: MixerConfig{
			Positions: []MixPosition{
				{AfterItem: 3, Count: 1},
				{AfterItem: 6, Count: 1},
				{AfterItem: 9, Count: 1},
				{AfterItem: 13, Count: 2},
				{AfterItem: 17, Count: 2},
			},
		},
		Analytics: AnalyticsConfig{
			FlushInterval: 15 * time.Second,
			MaxBatch:      100,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Client.BaseURL == "" {
		return fmt.Errorf("client.base_url is required")
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive, got %v", c.Client.Timeout)
	}
	if c.Client.CacheTTL <= 0 {
		return fmt.Errorf("client.cache_ttl must be positive, got %v", c.Client.CacheTTL)
	}
	if c.Client.CacheSize <= 0 {
		return fmt.Errorf("client.cache_size must be positive, got %d", c.Client.CacheSize)
	}
	if c.Client.DefaultLimit <= 0 {
		return fmt.Errorf("client.default_limit must be positive, got %d", c.Client.DefaultLimit)
	}
	if c.Client.MaxLimit < c.Client.DefaultLimit {
		return fmt.Errorf("client.max_limit (%d) must be >= client.default_limit (%d)",
			c.Client.MaxLimit, c.Client.DefaultLimit)
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("breaker.failure_threshold must be positive")
	}
	if c.Tracker.DebounceWindow < 0 {
		return fmt.Errorf("tracker.debounce_window must not be negative, got %v", c.Tracker.DebounceWindow)
	}
	if c.Tracker.QueueSize <= 0 {
		return fmt.Errorf("tracker.queue_size must be positive, got %d", c.Tracker.QueueSize)
	}
	if c.Tracker.PostsPerSecond <= 0 {
		return fmt.Errorf("tracker.posts_per_second must be positive, got %f", c.Tracker.PostsPerSecond)
	}
	if c.Analytics.FlushInterval <= 0 {
		return fmt.Errorf("analytics.flush_interval must be positive, got %v", c.Analytics.FlushInterval)
	}
	if c.Analytics.MaxBatch <= 0 {
		return fmt.Errorf("analytics.max_batch must be positive, got %d", c.Analytics.MaxBatch)
	}
	if err := ValidatePositions(c.Mixer.Positions); err != nil {
		return fmt.Errorf("mixer.positions: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Mixer.Positions = make([]MixPosition, len(c.Mixer.Positions))
	copy(clone.Mixer.Positions, c.Mixer.Positions)
	return &clone
}
