// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

// Package metrics provides Prometheus instrumentation for Feedweaver.
//
// Metrics are registered with the default registry via promauto and exposed
// on /metrics by the HTTP facade. Collected series cover feed retrieval
// (latency, outcomes, cache efficiency, coalescing, circuit breaker state),
// interaction telemetry, content mixing, and HTTP request handling.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// FetchesTotal counts feed fetches by feed and outcome.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_fetches_total",
			Help: "Total recommendation feed fetches",
		},
		[]string{"feed", "status"},
	)

	// FetchDuration observes feed fetch latency in seconds.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedweaver_fetch_duration_seconds",
			Help:    "Recommendation feed fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	// CoalescedFetches counts fetches that joined an in-flight request
	// instead of issuing their own.
	CoalescedFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedweaver_coalesced_fetches_total",
			Help: "Fetches coalesced into an in-flight request",
		},
	)

	// DroppedEntries counts malformed feed entries dropped during
	// normalization.
	DroppedEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_dropped_entries_total",
			Help: "Malformed feed entries dropped during normalization",
		},
		[]string{"feed"},
	)

	// CacheHits counts cache hits by cache type.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_cache_hits_total",
			Help: "Cache hits",
		},
		[]string{"cache_type"},
	)

	// CacheMisses counts cache misses by cache type.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_cache_misses_total",
			Help: "Cache misses",
		},
		[]string{"cache_type"},
	)

	// BreakerState tracks circuit breaker state per breaker:
	// 0=closed, 1=half-open, 2=open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedweaver_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// InteractionsRecorded counts accepted interaction events.
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_interactions_recorded_total",
			Help: "Interaction events accepted by the tracker",
		},
		[]string{"type", "source"},
	)

	// InteractionsDropped counts interaction events dropped before
	// delivery, by reason.
	InteractionsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_interactions_dropped_total",
			Help: "Interaction events dropped (debounced, queue_full, post_failed)",
		},
		[]string{"reason"},
	)

	// RecommendationClicks counts clicked recommendation cards by source.
	RecommendationClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_recommendation_clicks_total",
			Help: "Recommendation cards clicked, by source feed",
		},
		[]string{"source"},
	)

	// InjectedCards counts recommendation cards injected by the mixer.
	InjectedCards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedweaver_injected_cards_total",
			Help: "Recommendation cards injected into mixed feeds",
		},
	)

	// AnalyticsFlushes counts view-batch flushes to the backend.
	AnalyticsFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_analytics_flushes_total",
			Help: "Session view-batch flushes to the ranking backend",
		},
		[]string{"status"},
	)

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedweaver_http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestDuration observes HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedweaver_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// SetBreakerState records a circuit breaker state transition.
func SetBreakerState(name string, state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateClosed:
		v = 0
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	BreakerState.WithLabelValues(name).Set(v)
}

// ObserveHTTPRequest records one handled HTTP request.
func ObserveHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
