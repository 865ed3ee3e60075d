// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/nabaa-media/feedweaver/internal/content"
	"github.com/nabaa-media/feedweaver/internal/logging"
	"github.com/nabaa-media/feedweaver/internal/metrics"
	"github.com/nabaa-media/feedweaver/internal/recommend"
	"github.com/nabaa-media/feedweaver/internal/validation"
)

// maxRequestBytes bounds request bodies on write endpoints.
const maxRequestBytes = 1 << 20

// Handler serves the feed, recommendation and telemetry endpoints.
type Handler struct {
	recs      *recommend.Client
	articles  *content.Client
	tracker   *recommend.Tracker
	analytics *recommend.Analytics
	positions []recommend.MixPosition
	logger    zerolog.Logger
	startedAt time.Time
}

// NewHandler creates the API handler.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(
	recs *recommend.Client,
	articles *content.Client,
	tracker *recommend.Tracker,
	analytics *recommend.Analytics,
	positions []recommend.MixPosition,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		recs:      recs,
		articles:  articles,
		tracker:   tracker,
		analytics: analytics,
		positions: positions,
		logger:    logger.With().Str("component", "api").Logger(),
		startedAt: time.Now(),
	}
}

// FeedItem is one entry of the mixed content stream.
type FeedItem struct {
	// Type is "article" for primary content or "recommendation" for an
	// injected card.
	Type string `json:"type"`

	Article        *content.Article          `json:"article,omitempty"`
	Recommendation *recommend.Recommendation `json:"recommendation,omitempty"`
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.startedAt).String(),
	})
}

// HealthReady handles GET /api/v1/health/ready. The facade degrades rather
// than fails when the ranking backend is down, so readiness only reports
// component wiring plus cache statistics for operators.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.recs == nil || h.articles == nil {
		rw.ServiceUnavailable("components not initialized")
		return
	}

	hits, misses := h.recs.CacheStats()
	rw.Success(map[string]interface{}{
		"status":       "ready",
		"cache_hits":   hits,
		"cache_misses": misses,
	})
}

// GetFeed handles GET /api/v1/feed.
//
// It loads the primary article stream from the CMS, fans out to the
// recommendation feeds, aggregates the candidates and mixes cards into the
// stream at the configured positions. Feed failures degrade to an unmixed
// stream; only a CMS failure is fatal to the request.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"), 20, 100)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	params := recommend.Params{
		UserID:    q.Get("userId"),
		TimeRange: q.Get("timeRange"),
		ArticleID: q.Get("articleId"),
	}
	if cat := q.Get("category"); cat != "" {
		params.Categories = []string{cat}
	}

	articles, err := h.articles.LatestArticles(r.Context(), limit, q.Get("category"))
	if err != nil {
		rw.ExternalServiceError("cms", err)
		return
	}

	feeds, fails := h.recs.FetchAll(r.Context(), params)
	for feed, ferr := range fails {
		logging.Ctx(r.Context()).Warn().
			Err(ferr).
			Str("feed", feed.String()).
			Msg("Recommendation feed unavailable, serving degraded")
	}

	pool := recommend.Aggregate(feeds, recommend.AggregateOptions{})

	mixed, err := recommend.Mix(articles, pool, h.positions)
	if err != nil {
		rw.InternalError("invalid mixing configuration")
		return
	}

	items := make([]FeedItem, 0, len(mixed))
	injected := 0
	for i := range mixed {
		switch mixed[i].Kind {
		case recommend.MixedPrimary:
			article := mixed[i].Primary
			items = append(items, FeedItem{Type: "article", Article: &article})
		case recommend.MixedRecommendation:
			items = append(items, FeedItem{Type: "recommendation", Recommendation: mixed[i].Recommendation})
			injected++
		}
	}
	metrics.InjectedCards.Add(float64(injected))

	rw.SuccessWithMeta(items, &APIMeta{Count: len(items)})
}

// GetRecommendations handles GET /api/v1/recommendations.
//
// Returns the aggregated, deduplicated candidate pool with optional text
// search, source filtering and sorting.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"), 0, 200)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	opts := recommend.AggregateOptions{
		Query: q.Get("q"),
		Limit: limit,
	}

	if sortStr := q.Get("sort"); sortStr != "" {
		key, err := recommend.ParseSortKey(sortStr)
		if err != nil {
			rw.BadRequest("invalid sort key: " + sortStr)
			return
		}
		opts.Sort = key
	}

	if srcStr := q.Get("source"); srcStr != "" {
		src, err := recommend.ParseSource(srcStr)
		if err != nil {
			rw.BadRequest("invalid source: " + srcStr)
			return
		}
		opts.SourceFilter = &src
	}

	params := recommend.Params{
		UserID:    q.Get("userId"),
		TimeRange: q.Get("timeRange"),
		ArticleID: q.Get("articleId"),
	}
	if cats := q.Get("categories"); cats != "" {
		params.Categories = splitCSV(cats)
	}

	feeds, fails := h.recs.FetchAll(r.Context(), params)
	if len(feeds) == 0 && len(fails) > 0 {
		// Every feed failed; pick any error for the response.
		for feed, ferr := range fails {
			logging.Ctx(r.Context()).Error().
				Err(ferr).
				Str("feed", feed.String()).
				Msg("All recommendation feeds failed")
			rw.ExternalServiceError("recommendations", ferr)
			return
		}
	}
	for feed, ferr := range fails {
		logging.Ctx(r.Context()).Warn().
			Err(ferr).
			Str("feed", feed.String()).
			Msg("Recommendation feed unavailable")
	}

	pool := recommend.Aggregate(feeds, opts)
	rw.SuccessWithMeta(pool, &APIMeta{Count: len(pool)})
}

// interactionRequest is the POST /api/v1/interactions body.
type interactionRequest struct {
	ArticleID string `json:"articleId" validate:"required,max=128"`
	Type      string `json:"type"      validate:"required,interaction_type"`
	Source    string `json:"source"    validate:"omitempty,rec_source"`
}

// PostInteraction handles POST /api/v1/interactions.
//
// Recording is fire-and-forget: the event is folded into session state
// synchronously and delivered to the backend asynchronously, so the endpoint
// answers 202 regardless of backend health.
func (h *Handler) PostInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req interactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		rw.BadRequest("invalid request body")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	typ, err := recommend.ParseInteractionType(req.Type)
	if err != nil {
		rw.BadRequest("invalid interaction type: " + req.Type)
		return
	}

	src := recommend.SourceOrganic
	if req.Source != "" {
		if src, err = recommend.ParseSource(req.Source); err != nil {
			rw.BadRequest("invalid source: " + req.Source)
			return
		}
	}

	h.tracker.Record(req.ArticleID, typ, src)
	rw.Accepted(map[string]string{"status": "recorded"})
}

// viewedRequest is the POST /api/v1/analytics/view body.
type viewedRequest struct {
	ArticleIDs     []string `json:"articleIds" validate:"required,min=1,max=500,dive,required,max=128"`
	ReadingSeconds float64  `json:"readingSeconds" validate:"omitempty,gte=0"`
}

// PostViewed handles POST /api/v1/analytics/view. The portal frontend
// batches impression events for cards that became visible; an optional
// reading duration folds into the session average.
func (h *Handler) PostViewed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req viewedRequest
	if err := decodeBody(w, r, &req); err != nil {
		rw.BadRequest("invalid request body")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	h.analytics.OnViewed(req.ArticleIDs)
	if req.ReadingSeconds > 0 {
		h.analytics.OnRead(time.Duration(req.ReadingSeconds * float64(time.Second)))
	}

	rw.Accepted(map[string]int{"recorded": len(req.ArticleIDs)})
}

// GetSessionAnalytics handles GET /api/v1/analytics/session.
func (h *Handler) GetSessionAnalytics(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.analytics.Snapshot())
}

// ResetSessionAnalytics handles DELETE /api/v1/analytics/session.
func (h *Handler) ResetSessionAnalytics(w http.ResponseWriter, r *http.Request) {
	h.analytics.Reset()
	NewResponseWriter(w, r).NoContent()
}

// decodeBody decodes a JSON request body with a size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseLimit parses a limit query parameter with a default and a hard cap.
func parseLimit(raw string, def, maxVal int) (int, error) {
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if maxVal > 0 && limit > maxVal {
		limit = maxVal
	}
	return limit, nil
}

// splitCSV splits a comma-separated parameter, dropping empty items.
func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
