// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nabaa-media/feedweaver/internal/metrics"
)

// ViewSource yields buffered view events for delivery. An empty batch means
// nothing is pending.
type ViewSource interface {
	DrainViewed(limit int) []string
}

// ViewSink delivers a batch of view events to the ranking backend.
type ViewSink interface {
	PostViewedBatch(ctx context.Context, articleIDs []string) error
}

// FlushServiceConfig holds configuration for the analytics flush service.
type FlushServiceConfig struct {
	// Interval is how often buffered views are flushed.
	Interval time.Duration

	// MaxBatch caps the number of article IDs per flush POST.
	MaxBatch int
}

// FlushService periodically drains buffered view events from session
// analytics and posts them to the ranking backend so served impressions
// feed back into ranking.
type FlushService struct {
	source ViewSource
	sink   ViewSink
	config FlushServiceConfig
	logger zerolog.Logger
}

// NewFlushService creates an analytics flush service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewFlushService(source ViewSource, sink ViewSink, cfg FlushServiceConfig, logger zerolog.Logger) *FlushService {
	return &FlushService{
		source: source,
		sink:   sink,
		config: cfg,
		logger: logger.With().Str("service", "analytics-flush").Logger(),
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *FlushService) String() string { return "analytics-flush" }

// Serve implements suture.Service. A final flush runs on shutdown so
// buffered impressions are not lost on restart.
func (s *FlushService) Serve(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.config.Interval = 15 * time.Second
	}
	if s.config.MaxBatch <= 0 {
		s.config.MaxBatch = 100
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Int("max_batch", s.config.MaxBatch).
		Msg("analytics flush service starting")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finalFlush()
			s.logger.Info().Msg("analytics flush service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

// flush drains and posts pending batches until the buffer is empty.
func (s *FlushService) flush(ctx context.Context) {
	for {
		batch := s.source.DrainViewed(s.config.MaxBatch)
		if len(batch) == 0 {
			return
		}

		if err := s.sink.PostViewedBatch(ctx, batch); err != nil {
			metrics.AnalyticsFlushes.WithLabelValues("error").Inc()
			s.logger.Warn().
				Err(err).
				Int("batch", len(batch)).
				Msg("view batch delivery failed, events dropped")
			return
		}

		metrics.AnalyticsFlushes.WithLabelValues("ok").Inc()
		s.logger.Debug().Int("batch", len(batch)).Msg("view batch delivered")
	}
}

// finalFlush runs at shutdown with its own short deadline, since the serve
// context is already canceled.
func (s *FlushService) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(ctx)
}
