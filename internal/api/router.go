// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nabaa-media/feedweaver/internal/middleware"
)

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
}

// NewRouter creates a router for the given handler and middleware config.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler: handler,
		mw:      NewChiMiddleware(mwConfig),
	}
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS()) // global so OPTIONS preflight is handled
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Compress(5, "application/json"))

	// Health endpoints keep a permissive limit for monitoring probes.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.mw.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Portal-facing endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.mw.RateLimit())

		r.Get("/feed", router.handler.GetFeed)
		r.Get("/recommendations", router.handler.GetRecommendations)
		r.Post("/interactions", router.handler.PostInteraction)

		r.Route("/analytics", func(r chi.Router) {
			r.Post("/view", router.handler.PostViewed)
			r.Get("/session", router.handler.GetSessionAnalytics)
			r.Delete("/session", router.handler.ResetSessionAnalytics)
		})
	})

	// Prometheus scrape endpoint, outside the API rate limit.
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	return r
}
