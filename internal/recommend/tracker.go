// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nabaa-media/feedweaver/internal/metrics"
)

// InteractionPoster delivers interaction events to the ranking backend.
// *Client implements it.
type InteractionPoster interface {
	PostInteraction(ctx context.Context, in Interaction) error
}

// Tracker records user interactions as best-effort telemetry.
//
// Record never blocks and never returns an error: recording must not break
// the reading experience. Events are debounced per (article, type) within a
// short window, folded into session analytics, assigned to a rolling
// per-article interaction score, and queued for asynchronous delivery to the
// backend. Delivery failures are logged at debug level and swallowed; a full
// queue drops events instead of blocking.
type Tracker struct {
	cfg       TrackerConfig
	logger    zerolog.Logger
	poster    InteractionPoster
	analytics *Analytics

	mu       sync.Mutex
	lastSeen map[string]time.Time // (article|type) -> last accepted
	scores   map[string]float64   // article -> rolling interaction score

	queue   chan Interaction
	limiter *rate.Limiter

	closeOnce sync.Once
	done      chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// NewTracker creates an interaction tracker and starts its delivery worker.
// analytics may be nil when session counters are not wanted.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTracker(cfg TrackerConfig, poster InteractionPoster, analytics *Analytics, logger zerolog.Logger) *Tracker {
	t := &Tracker{
		cfg:       cfg,
		logger:    logger.With().Str("component", "interaction-tracker").Logger(),
		poster:    poster,
		analytics: analytics,
		lastSeen:  make(map[string]time.Time),
		scores:    make(map[string]float64),
		queue:     make(chan Interaction, cfg.QueueSize),
		limiter:   rate.NewLimiter(rate.Limit(cfg.PostsPerSecond), cfg.PostBurst),
		done:      make(chan struct{}),
		now:       time.Now,
	}

	go t.deliveryLoop()
	return t
}

// Record observes one user action against a content identifier.
//
// Duplicate (article, type) events inside the debounce window are dropped
// before any counting, so rapid scroll-triggered view events count once.
func (t *Tracker) Record(articleID string, typ InteractionType, src Source) {
	if articleID == "" {
		return
	}

	now := t.now()
	if !t.accept(articleID, typ, now) {
		metrics.InteractionsDropped.WithLabelValues("debounced").Inc()
		return
	}
	metrics.InteractionsRecorded.WithLabelValues(typ.String(), src.String()).Inc()

	t.fold(articleID, typ, src)

	in := Interaction{
		ArticleID: articleID,
		Type:      typ,
		Source:    src,
		Timestamp: now,
	}
	select {
	case t.queue <- in:
	default:
		// Telemetry is expendable; never block the caller on a full queue.
		metrics.InteractionsDropped.WithLabelValues("queue_full").Inc()
		t.logger.Debug().
			Str("article_id", articleID).
			Str("type", typ.String()).
			Msg("interaction queue full, event dropped")
	}
}

// accept applies the per-(article, type) debounce window.
func (t *Tracker) accept(articleID string, typ InteractionType, now time.Time) bool {
	key := articleID + "|" + typ.String()

	t.mu.Lock()
	defer t.mu.Unlock()

	if last, ok := t.lastSeen[key]; ok && now.Sub(last) < t.cfg.DebounceWindow {
		return false
	}
	t.lastSeen[key] = now
	return true
}

// fold applies an accepted event to local state.
func (t *Tracker) fold(articleID string, typ InteractionType, src Source) {
	t.mu.Lock()
	t.scores[articleID] += typ.Weight()
	t.mu.Unlock()

	if t.analytics == nil {
		return
	}
	switch typ {
	case InteractionView:
		t.analytics.OnViewed([]string{articleID})
	case InteractionClick:
		t.analytics.OnClicked(articleID, src)
	case InteractionLike, InteractionShare, InteractionBookmark:
		// Strong intent signals feed the rolling score only.
	}
}

// InteractionScore returns the rolling interaction score for an article,
// the sum of type weights over accepted events this session.
func (t *Tracker) InteractionScore(articleID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scores[articleID]
}

// deliveryLoop posts queued events to the backend, paced by the telemetry
// rate limiter. Failures are swallowed: at-most-once, no retry queue.
func (t *Tracker) deliveryLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-t.done
		cancel()
	}()

	for {
		select {
		case <-t.done:
			return
		case in := <-t.queue:
			if err := t.limiter.Wait(ctx); err != nil {
				return
			}
			t.deliver(ctx, in)
		}
	}
}

// deliver posts one event.
func (t *Tracker) deliver(parent context.Context, in Interaction) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	if err := t.poster.PostInteraction(ctx, in); err != nil {
		metrics.InteractionsDropped.WithLabelValues("post_failed").Inc()
		t.logger.Debug().
			Err(err).
			Str("article_id", in.ArticleID).
			Str("type", in.Type.String()).
			Msg("interaction post failed")
	}
}

// Close stops the delivery worker. Queued events that have not been posted
// yet are dropped; telemetry carries no delivery guarantee.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
}
