// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.Client.DefaultLimit != 10 || cfg.Client.MaxLimit != 50 {
		t.Errorf("limits = %d/%d, want 10/50", cfg.Client.DefaultLimit, cfg.Client.MaxLimit)
	}
	if len(cfg.Mixer.Positions) != 5 {
		t.Errorf("default positions = %v", cfg.Mixer.Positions)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Client.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Client.Timeout = 0 }},
		{"zero cache ttl", func(c *Config) { c.Client.CacheTTL = 0 }},
		{"zero cache size", func(c *Config) { c.Client.CacheSize = 0 }},
		{"zero default limit", func(c *Config) { c.Client.DefaultLimit = 0 }},
		{"max below default", func(c *Config) { c.Client.MaxLimit = c.Client.DefaultLimit - 1 }},
		{"zero breaker threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }},
		{"negative debounce", func(c *Config) { c.Tracker.DebounceWindow = -time.Second }},
		{"zero queue size", func(c *Config) { c.Tracker.QueueSize = 0 }},
		{"zero post rate", func(c *Config) { c.Tracker.PostsPerSecond = 0 }},
		{"zero flush interval", func(c *Config) { c.Analytics.FlushInterval = 0 }},
		{"zero max batch", func(c *Config) { c.Analytics.MaxBatch = 0 }},
		{"bad positions", func(c *Config) { c.Mixer.Positions = []MixPosition{{AfterItem: 0, Count: 1}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestConfigCloneIsDeep(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	clone.Mixer.Positions[0].AfterItem = 99
	if cfg.Mixer.Positions[0].AfterItem == 99 {
		t.Error("Clone shares the positions slice")
	}

	clone.Client.BaseURL = "http://elsewhere"
	if cfg.Client.BaseURL == clone.Client.BaseURL {
		t.Error("Clone shares scalar fields")
	}
}
