// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"sync"
	"time"

	"github.com/nabaa-media/feedweaver/internal/metrics"
)

// Analytics accumulates per-session recommendation counters.
//
// It is an explicit handle, not a module-level singleton: whoever needs the
// counters constructs one and passes it along. Counters are purely additive;
// Snapshot is a pure read and Reset starts a fresh session.
//
// Viewed article IDs are additionally buffered for batched delivery to the
// ranking backend; the analytics flush service drains them periodically via
// DrainViewed.
type Analytics struct {
	mu sync.Mutex

	viewed       int
	clicked      int
	readingTotal time.Duration
	readingCount int
	startedAt    time.Time

	// viewBuffer holds article IDs awaiting a batched backend report.
	viewBuffer []string
}

// NewAnalytics creates session analytics with counters at zero.
func NewAnalytics() *Analytics {
	return &Analytics{startedAt: time.Now()}
}

// OnViewed records that recommendation cards entered the viewport.
func (a *Analytics) OnViewed(articleIDs []string) {
	if len(articleIDs) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.viewed += len(articleIDs)
	a.viewBuffer = append(a.viewBuffer, articleIDs...)
}

// OnClicked records that a recommendation card was opened. The article and
// source are counted, not stored; the tracker owns per-article signals.
func (a *Analytics) OnClicked(_ string, src Source) {
	metrics.RecommendationClicks.WithLabelValues(src.String()).Inc()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.clicked++
}

// OnRead folds one article reading duration into the session average.
func (a *Analytics) OnRead(d time.Duration) {
	if d <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.readingTotal += d
	a.readingCount++
}

// Snapshot returns the current session counters. The click-through rate
// guards the zero-denominator case and is 0, never NaN.
func (a *Analytics) Snapshot() SessionAnalytics {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := SessionAnalytics{
		ViewedRecommendations:  a.viewed,
		ClickedRecommendations: a.clicked,
		StartedAt:              a.startedAt,
	}
	snap.ClickThroughRate = float64(a.clicked) / float64(max(a.viewed, 1))
	if a.readingCount > 0 {
		snap.AverageReadingTime = a.readingTotal / time.Duration(a.readingCount)
	}
	return snap
}

// Reset zeroes all counters and starts a new session. Buffered view events
// are discarded with the session.
func (a *Analytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.viewed = 0
	a.clicked = 0
	a.readingTotal = 0
	a.readingCount = 0
	a.viewBuffer = nil
	a.startedAt = time.Now()
}

// DrainViewed removes and returns up to limit buffered view events for
// backend delivery. A non-positive limit drains everything.
func (a *Analytics) DrainViewed(limit int) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.viewBuffer) == 0 {
		return nil
	}
	if limit <= 0 || limit >= len(a.viewBuffer) {
		out := a.viewBuffer
		a.viewBuffer = nil
		return out
	}

	out := a.viewBuffer[:limit:limit]
	a.viewBuffer = append([]string(nil), a.viewBuffer[limit:]...)
	return out
}
