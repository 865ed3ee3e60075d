// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"feedweaver.yaml",
	"feedweaver.yml",
	"/etc/feedweaver/config.yaml",
	"/etc/feedweaver/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "FEEDWEAVER_CONFIG"

// Load builds the configuration from three layers, lowest priority first:
// built-in defaults, an optional YAML file, then environment variables.
// The merged result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// supplied through environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"refresh.categories",
}

// processSliceFields converts comma-separated env strings into slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to config paths. Unmapped
// variables are skipped so the environment cannot pollute the config tree.
//
// Examples:
//   - RECOMMEND_BASE_URL   -> recommend.client.base_url
//   - MIX_POSITIONS cannot be expressed as an env var; use the config file.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Recommendation client
		"recommend_base_url":      "recommend.client.base_url",
		"recommend_timeout":       "recommend.client.timeout",
		"recommend_cache_ttl":     "recommend.client.cache_ttl",
		"recommend_cache_size":    "recommend.client.cache_size",
		"recommend_default_limit": "recommend.client.default_limit",
		"recommend_max_limit":     "recommend.client.max_limit",

		// Circuit breaker
		"breaker_max_requests":      "recommend.breaker.max_requests",
		"breaker_interval":          "recommend.breaker.interval",
		"breaker_timeout":           "recommend.breaker.timeout",
		"breaker_failure_threshold": "recommend.breaker.failure_threshold",

		// Interaction tracker
		"tracker_debounce_window":  "recommend.tracker.debounce_window",
		"tracker_queue_size":       "recommend.tracker.queue_size",
		"tracker_posts_per_second": "recommend.tracker.posts_per_second",
		"tracker_post_burst":       "recommend.tracker.post_burst",

		// Analytics
		"analytics_flush_interval": "recommend.analytics.flush_interval",
		"analytics_max_batch":      "recommend.analytics.max_batch",

		// CMS content client
		"content_base_url":   "content.base_url",
		"content_timeout":    "content.timeout",
		"content_cache_ttl":  "content.cache_ttl",
		"content_cache_size": "content.cache_size",

		// Background refresh
		"refresh_enabled":    "refresh.enabled",
		"refresh_interval":   "refresh.interval",
		"refresh_time_range": "refresh.time_range",
		"refresh_categories": "refresh.categories",

		// Security
		"cors_origins":        "security.cors_origins",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
