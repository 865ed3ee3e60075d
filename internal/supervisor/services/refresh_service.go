// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nabaa-media/feedweaver/internal/recommend"
)

// FeedFetcher is the slice of the recommendation client the refresh loop
// needs. Fetches populate the client's response cache as a side effect,
// which is the whole point of the loop.
type FeedFetcher interface {
	FetchRecommendations(ctx context.Context, feed recommend.Source, params recommend.Params) ([]recommend.Recommendation, error)
}

// RefreshServiceConfig holds configuration for the feed refresh service.
type RefreshServiceConfig struct {
	// Interval is how often the trending feed is re-fetched.
	Interval time.Duration

	// TimeRange is the trending window requested (e.g. "24h").
	TimeRange string

	// Categories triggers one warm fetch per listed category in addition
	// to the uncategorized fetch.
	Categories []string
}

// RefreshService keeps the trending feed warm so portal page loads hit the
// response cache instead of paying a backend round-trip.
type RefreshService struct {
	fetcher FeedFetcher
	config  RefreshServiceConfig
	logger  zerolog.Logger
}

// NewRefreshService creates a feed refresh service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRefreshService(fetcher FeedFetcher, cfg RefreshServiceConfig, logger zerolog.Logger) *RefreshService {
	return &RefreshService{
		fetcher: fetcher,
		config:  cfg,
		logger:  logger.With().Str("service", "feed-refresh").Logger(),
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *RefreshService) String() string { return "feed-refresh" }

// Serve implements suture.Service. It warms the trending feed once on
// startup and then on every tick. Fetch failures are logged and retried on
// the next tick; they never crash the service.
func (s *RefreshService) Serve(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.config.Interval = 5 * time.Minute
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Str("time_range", s.config.TimeRange).
		Strs("categories", s.config.Categories).
		Msg("feed refresh service starting")

	s.refresh(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("feed refresh service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh performs one warm-up pass over the configured category set.
func (s *RefreshService) refresh(ctx context.Context) {
	targets := append([]string{""}, s.config.Categories...)

	for _, category := range targets {
		params := recommend.Params{TimeRange: s.config.TimeRange}
		if category != "" {
			params.Categories = []string{category}
		}

		recs, err := s.fetcher.FetchRecommendations(ctx, recommend.SourceTrending, params)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("category", category).
				Msg("trending refresh failed, retrying next tick")
			continue
		}

		s.logger.Debug().
			Str("category", category).
			Int("candidates", len(recs)).
			Msg("trending feed warmed")
	}
}
