// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

// Package content fetches the primary article stream from the CMS backend.
//
// The CMS owns all article storage and editing; this package only reads the
// latest-articles list the mixer interleaves recommendations into. Responses
// are cached with a short TTL like recommendation feeds.
package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/nabaa-media/feedweaver/internal/cache"
	"github.com/nabaa-media/feedweaver/internal/metrics"
)

// maxResponseBytes bounds how much of a CMS response is read.
const maxResponseBytes = 4 << 20

// Article is one primary content item as served by the CMS.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PublishDate time.Time `json:"publishDate,omitempty"`
}

// Config configures the CMS content client.
type Config struct {
	// BaseURL is the CMS API base URL.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds a single fetch round-trip.
	Timeout time.Duration `koanf:"timeout"`

	// CacheTTL is how long a latest-articles response stays fresh.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CacheSize is the maximum number of cached responses.
	CacheSize int `koanf:"cache_size"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://127.0.0.1:8080",
		Timeout:   5 * time.Second,
		CacheTTL:  30 * time.Second,
		CacheSize: 64,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", c.CacheTTL)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", c.CacheSize)
	}
	return nil
}

// Client reads the latest-articles list from the CMS. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
	respCache  *cache.LRU[[]Article]
}

// NewClient creates a CMS content client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "content-client").Logger(),
		respCache:  cache.NewLRU[[]Article](cfg.CacheSize, cfg.CacheTTL),
	}, nil
}

// LatestArticles fetches the newest articles, optionally narrowed to one
// category. Results are cached per (limit, category).
func (c *Client) LatestArticles(ctx context.Context, limit int, category string) ([]Article, error) {
	if limit <= 0 {
		limit = 20
	}
	key := strconv.Itoa(limit) + "|" + category

	if articles, ok := c.respCache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("articles").Inc()
		out := make([]Article, len(articles))
		copy(out, articles)
		return out, nil
	}
	metrics.CacheMisses.WithLabelValues("articles").Inc()

	articles, err := c.fetchLatest(ctx, limit, category)
	if err != nil {
		return nil, err
	}
	c.respCache.Set(key, articles)

	out := make([]Article, len(articles))
	copy(out, articles)
	return out, nil
}

// fetchLatest performs one HTTP round-trip to the CMS.
func (c *Client) fetchLatest(ctx context.Context, limit int, category string) ([]Article, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.cfg.BaseURL, err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/articles/latest"

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if category != "" {
		q.Set("category", category)
	}
	base.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build latest-articles request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("fetch latest articles: CMS returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read latest articles: %w", err)
	}

	var payload struct {
		Articles []Article `json:"articles"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode latest articles: %w", err)
	}

	return payload.Articles, nil
}
