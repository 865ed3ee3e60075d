// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

// Command feedweaver runs the recommendation facade for the news portal:
// it retrieves ranked candidates from the ranking backend, mixes them into
// the primary article stream, and relays interaction telemetry.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nabaa-media/feedweaver/internal/api"
	"github.com/nabaa-media/feedweaver/internal/config"
	"github.com/nabaa-media/feedweaver/internal/content"
	"github.com/nabaa-media/feedweaver/internal/logging"
	"github.com/nabaa-media/feedweaver/internal/recommend"
	"github.com/nabaa-media/feedweaver/internal/supervisor"
	"github.com/nabaa-media/feedweaver/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet; the default logger has to do.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("recommend_url", cfg.Recommend.Client.BaseURL).
		Str("cms_url", cfg.Content.BaseURL).
		Bool("refresh_enabled", cfg.Refresh.Enabled).
		Msg("Configuration loaded")

	logger := logging.Logger()

	recClient, err := recommend.NewClient(&cfg.Recommend, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation client")
	}

	cmsClient, err := content.NewClient(cfg.Content, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create CMS client")
	}

	analytics := recommend.NewAnalytics()
	tracker := recommend.NewTracker(cfg.Recommend.Tracker, recClient, analytics, logger)
	defer tracker.Close()

	handler := api.NewHandler(recClient, cmsClient, tracker, analytics, cfg.Recommend.Mixer.Positions, logger)
	router := api.NewRouter(handler, &api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Security.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
		RateLimitRequests:    cfg.Security.RateLimitReqs,
		RateLimitWindow:      cfg.Security.RateLimitWindow,
		RateLimitDisabled:    cfg.Security.RateLimitDisabled,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if cfg.Refresh.Enabled {
		tree.AddBackgroundService(services.NewRefreshService(recClient, services.RefreshServiceConfig{
			Interval:   cfg.Refresh.Interval,
			TimeRange:  cfg.Refresh.TimeRange,
			Categories: cfg.Refresh.Categories,
		}, logger))
		logging.Info().Dur("interval", cfg.Refresh.Interval).Msg("Feed refresh service added")
	}

	tree.AddBackgroundService(services.NewFlushService(analytics, recClient, services.FlushServiceConfig{
		Interval: cfg.Recommend.Analytics.FlushInterval,
		MaxBatch: cfg.Recommend.Analytics.MaxBatch,
	}, logger))

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
