// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nabaa-media/feedweaver/internal/cache"
	"github.com/nabaa-media/feedweaver/internal/metrics"
)

// maxResponseBytes bounds how much of a feed response is read.
const maxResponseBytes = 4 << 20

// Params narrows a feed fetch. Zero values are omitted from the query.
type Params struct {
	// UserID selects the user for the personal feed.
	UserID string

	// Limit is the maximum number of candidates requested. Zero means the
	// configured default; values above the configured maximum are capped.
	Limit int

	// Categories restricts the personal feed to these categories.
	Categories []string

	// TimeRange selects the trending window (e.g. "24h", "7d").
	TimeRange string

	// ArticleID is the anchor article for the similar feed.
	ArticleID string
}

// flight is one in-progress fetch shared by all coalesced callers.
type flight struct {
	done chan struct{}
	recs []Recommendation
	err  error
}

// Client fetches ranked candidate lists from the ranking backend.
//
// Successful responses are cached per (feed, params) with a short TTL, and
// concurrent fetches for the same key share a single network round-trip. A
// circuit breaker guards the backend; when it is open, fetches fail fast with
// a NetworkError. The client never retries — callers own retry policy.
//
// Client is safe for concurrent use.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     zerolog.Logger

	respCache *cache.LRU[[]Recommendation]
	breaker   *gobreaker.CircuitBreaker[[]Recommendation]

	inflightMu sync.Mutex
	inflight   map[string]*flight
}

// NewClient creates a recommendation client from the given configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg *Config, logger zerolog.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Client{
		cfg: cfg.Client,
		httpClient: &http.Client{
			Timeout: cfg.Client.Timeout,
		},
		logger:    logger.With().Str("component", "recommend-client").Logger(),
		respCache: cache.NewLRU[[]Recommendation](cfg.Client.CacheSize, cfg.Client.CacheTTL),
		inflight:  make(map[string]*flight),
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]Recommendation](gobreaker.Settings{
		Name:        "ranking-backend",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.SetBreakerState(name, to)
		},
	})

	return c, nil
}

// FetchRecommendations retrieves one feed's ranked candidates.
//
// A cache hit returns synchronously without a network round-trip. Concurrent
// calls with an identical (feed, params) key await the first call's result
// instead of issuing duplicate requests, and ctx cancellation abandons the
// wait without cancelling the shared fetch.
func (c *Client) FetchRecommendations(ctx context.Context, feed Source, params Params) ([]Recommendation, error) {
	if feed != SourcePersonal && feed != SourceTrending && feed != SourceSimilar {
		return nil, fmt.Errorf("source %q is not a fetchable feed", feed)
	}

	params.Limit = c.clampLimit(params.Limit)
	key := c.cacheKey(feed, params)

	if recs, ok := c.respCache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("recommendations").Inc()
		return cloneRecommendations(recs), nil
	}
	metrics.CacheMisses.WithLabelValues("recommendations").Inc()

	fl, leader := c.joinFlight(key)
	if leader {
		go c.runFlight(key, feed, params, fl)
	} else {
		metrics.CoalescedFetches.Inc()
	}

	select {
	case <-fl.done:
	case <-ctx.Done():
		// Caller signalled disinterest; the shared fetch continues for
		// other waiters and still populates the cache.
		return nil, ctx.Err()
	}

	if fl.err != nil {
		return nil, fl.err
	}
	return cloneRecommendations(fl.recs), nil
}

// joinFlight returns the in-flight fetch for key, creating one if absent.
// The second return is true when the caller created the flight.
func (c *Client) joinFlight(key string) (*flight, bool) {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()

	if fl, ok := c.inflight[key]; ok {
		return fl, false
	}
	fl := &flight{done: make(chan struct{})}
	c.inflight[key] = fl
	return fl, true
}

// runFlight performs the shared fetch and publishes its result. The fetch
// uses its own deadline so one waiter's cancellation never fails the rest.
func (c *Client) runFlight(key string, feed Source, params Params, fl *flight) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	recs, err := c.breaker.Execute(func() ([]Recommendation, error) {
		return c.fetchFeed(ctx, feed, params)
	})
	if err != nil && !IsNetworkError(err) && !IsInvalidResponse(err) {
		// Breaker-open and similar internal failures surface as network
		// errors: no usable response was produced.
		err = &NetworkError{Feed: feed, Err: err}
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.FetchDuration.WithLabelValues(feed.String()).Observe(time.Since(start).Seconds())
	metrics.FetchesTotal.WithLabelValues(feed.String(), status).Inc()

	fl.recs, fl.err = recs, err
	if err == nil {
		c.respCache.Set(key, recs)
	}

	c.inflightMu.Lock()
	delete(c.inflight, key)
	c.inflightMu.Unlock()

	close(fl.done)
}

// fetchFeed performs one HTTP round-trip and normalizes the payload.
func (c *Client) fetchFeed(ctx context.Context, feed Source, params Params) ([]Recommendation, error) {
	u, err := c.feedURL(feed, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &NetworkError{Feed: feed, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Feed: feed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &NetworkError{Feed: feed, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Feed: feed, Err: err}
	}

	return c.decodeFeed(feed, body)
}

// feedResponse is the backend payload envelope.
type feedResponse struct {
	Recommendations []rawRecommendation `json:"recommendations"`
}

// rawRecommendation is a single entry before normalization. Score and
// confidence tolerate string-encoded numbers; publish dates that fail to
// parse are dropped silently rather than failing the batch.
type rawRecommendation struct {
	ArticleID   string    `json:"articleId"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Score       flexFloat `json:"score"`
	Confidence  flexFloat `json:"confidence"`
	Source      string    `json:"source"`
	PublishDate string    `json:"publishDate"`
	ReadingTime int       `json:"readingTime"`
	Reasoning   string    `json:"reasoning"`
}

// decodeFeed parses and normalizes a feed payload. Malformed entries are
// dropped; a partial result is preferable to no result.
func (c *Client) decodeFeed(feed Source, body []byte) ([]Recommendation, error) {
	var payload feedResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &InvalidResponseError{Feed: feed, Reason: "malformed payload", Err: err}
	}
	if payload.Recommendations == nil {
		return nil, &InvalidResponseError{Feed: feed, Reason: "missing recommendations array"}
	}

	recs := make([]Recommendation, 0, len(payload.Recommendations))
	dropped := 0
	for i := range payload.Recommendations {
		rec, ok := c.normalize(feed, &payload.Recommendations[i])
		if !ok {
			dropped++
			continue
		}
		recs = append(recs, rec)
	}

	if dropped > 0 {
		metrics.DroppedEntries.WithLabelValues(feed.String()).Add(float64(dropped))
		c.logger.Debug().
			Str("feed", feed.String()).
			Int("dropped", dropped).
			Int("kept", len(recs)).
			Msg("dropped malformed feed entries")
	}

	return recs, nil
}

// normalize converts a raw entry into a Recommendation. Entries missing an
// article ID or a usable score are rejected.
func (c *Client) normalize(feed Source, raw *rawRecommendation) (Recommendation, bool) {
	if raw.ArticleID == "" || !raw.Score.set {
		return Recommendation{}, false
	}

	source := feed
	if raw.Source != "" {
		if parsed, err := ParseSource(raw.Source); err == nil && parsed != SourceOrganic {
			source = parsed
		}
	}

	rec := Recommendation{
		ArticleID:   raw.ArticleID,
		Title:       raw.Title,
		Category:    raw.Category,
		Tags:        raw.Tags,
		Score:       clamp01(raw.Score.value),
		Source:      source,
		Reasoning:   raw.Reasoning,
		ReadingTime: max(raw.ReadingTime, 0),
	}
	if raw.Confidence.set {
		rec.Confidence = clamp01(raw.Confidence.value)
	}
	if raw.PublishDate != "" {
		if ts, err := time.Parse(time.RFC3339, raw.PublishDate); err == nil {
			rec.PublishDate = ts
		}
	}
	return rec, true
}

// feedURL builds the request URL for a feed.
func (c *Client) feedURL(feed Source, params Params) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.cfg.BaseURL, err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/recommendations/" + feed.String()

	q := url.Values{}
	q.Set("limit", strconv.Itoa(params.Limit))
	if params.UserID != "" {
		q.Set("userId", params.UserID)
	}
	if len(params.Categories) > 0 {
		q.Set("categories", strings.Join(params.Categories, ","))
	}
	if params.TimeRange != "" {
		q.Set("timeRange", params.TimeRange)
	}
	if params.ArticleID != "" {
		q.Set("articleId", params.ArticleID)
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}

// cacheKey builds a deterministic key for a (feed, params) pair. Category
// order is irrelevant to the backend, so categories are sorted.
func (c *Client) cacheKey(feed Source, params Params) string {
	cats := append([]string(nil), params.Categories...)
	sort.Strings(cats)

	var b strings.Builder
	b.WriteString(feed.String())
	b.WriteString("|u=")
	b.WriteString(params.UserID)
	b.WriteString("|l=")
	b.WriteString(strconv.Itoa(params.Limit))
	b.WriteString("|c=")
	b.WriteString(strings.Join(cats, ","))
	b.WriteString("|t=")
	b.WriteString(params.TimeRange)
	b.WriteString("|a=")
	b.WriteString(params.ArticleID)
	return b.String()
}

// clampLimit applies the configured default and maximum candidate counts.
func (c *Client) clampLimit(limit int) int {
	if limit <= 0 {
		return c.cfg.DefaultLimit
	}
	if limit > c.cfg.MaxLimit {
		return c.cfg.MaxLimit
	}
	return limit
}

// PostInteraction sends one interaction event to the backend. The tracker
// calls this asynchronously; a non-nil error means the event was lost, which
// is acceptable for best-effort telemetry.
func (c *Client) PostInteraction(ctx context.Context, in Interaction) error {
	return c.postJSON(ctx, "/interactions", in)
}

// PostViewedBatch reports a batch of viewed article IDs to the backend.
func (c *Client) PostViewedBatch(ctx context.Context, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	return c.postJSON(ctx, "/analytics/view", map[string][]string{"articleIds": articleIDs})
}

// postJSON posts a JSON body and expects a 2xx status.
func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", path, err)
	}

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.cfg.BaseURL, err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: backend returned status %d", path, resp.StatusCode)
	}
	return nil
}

// CacheStats exposes response-cache hit/miss counts for diagnostics.
func (c *Client) CacheStats() (hits, misses int64) {
	return c.respCache.Stats()
}

// flexFloat is a float64 that tolerates string-encoded numbers. Unparseable
// values leave set false so the entry can be dropped instead of failing the
// whole batch.
type flexFloat struct {
	value float64
	set   bool
}

// UnmarshalJSON implements lenient numeric decoding.
func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.value = v
	f.set = true
	return nil
}

// clamp01 clamps v to the [0, 1] score range.
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// cloneRecommendations copies a slice so cached entries are never aliased by
// callers.
func cloneRecommendations(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	copy(out, recs)
	return out
}
