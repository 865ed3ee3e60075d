// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"fmt"
	"time"
)

// Source identifies the feed a recommendation candidate came from.
type Source int

const (
	// SourcePersonal is the per-user personalized feed.
	SourcePersonal Source = iota
	// SourceTrending is the portal-wide trending feed.
	SourceTrending
	// SourceSimilar is the similar-to-current-article feed.
	SourceSimilar
	// SourceOrganic tags interactions that did not originate from a
	// recommendation card. It is never a fetchable feed.
	SourceOrganic
)

// FeedSources lists the fetchable feeds in their canonical merge order.
// The aggregator flattens feeds in this order so ties are deterministic.
var FeedSources = [...]Source{SourcePersonal, SourceTrending, SourceSimilar}

// String returns the wire name for the source.
func (s Source) String() string {
	switch s {
	case SourcePersonal:
		return "personal"
	case SourceTrending:
		return "trending"
	case SourceSimilar:
		return "similar"
	case SourceOrganic:
		return "organic"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the source as its wire name.
func (s Source) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a source from its wire name.
func (s *Source) UnmarshalJSON(data []byte) error {
	name := string(data)
	if len(name) >= 2 && name[0] == '"' {
		name = name[1 : len(name)-1]
	}
	parsed, err := ParseSource(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSource converts a wire name to a Source.
func ParseSource(name string) (Source, error) {
	switch name {
	case "personal":
		return SourcePersonal, nil
	case "trending":
		return SourceTrending, nil
	case "similar":
		return SourceSimilar, nil
	case "organic":
		return SourceOrganic, nil
	default:
		return SourceOrganic, fmt.Errorf("unknown source %q", name)
	}
}

// InteractionType classifies an observed user action on a content item.
type InteractionType int

const (
	// InteractionView indicates a recommendation card entered the viewport.
	InteractionView InteractionType = iota
	// InteractionLike indicates the reader liked the article.
	InteractionLike
	// InteractionShare indicates the reader shared the article.
	InteractionShare
	// InteractionBookmark indicates the reader bookmarked the article.
	InteractionBookmark
	// InteractionClick indicates the reader opened the article.
	InteractionClick
)

// String returns the wire name for the interaction type.
func (t InteractionType) String() string {
	switch t {
	case InteractionView:
		return "view"
	case InteractionLike:
		return "like"
	case InteractionShare:
		return "share"
	case InteractionBookmark:
		return "bookmark"
	case InteractionClick:
		return "click"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the interaction type as its wire name.
func (t InteractionType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes an interaction type from its wire name.
func (t *InteractionType) UnmarshalJSON(data []byte) error {
	name := string(data)
	if len(name) >= 2 && name[0] == '"' {
		name = name[1 : len(name)-1]
	}
	parsed, err := ParseInteractionType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseInteractionType converts a wire name to an InteractionType.
func ParseInteractionType(name string) (InteractionType, error) {
	switch name {
	case "view":
		return InteractionView, nil
	case "like":
		return InteractionLike, nil
	case "share":
		return InteractionShare, nil
	case "bookmark":
		return InteractionBookmark, nil
	case "click":
		return InteractionClick, nil
	default:
		return InteractionView, fmt.Errorf("unknown interaction type %q", name)
	}
}

// Weight returns the contribution of this interaction type to an article's
// rolling interaction score. Stronger intent signals weigh more.
func (t InteractionType) Weight() float64 {
	switch t {
	case InteractionView:
		return 0.1
	case InteractionClick:
		return 0.3
	case InteractionLike:
		return 0.5
	case InteractionBookmark:
		return 0.6
	case InteractionShare:
		return 0.8
	default:
		return 0.0
	}
}

// Recommendation is a candidate content item from a ranking feed.
type Recommendation struct {
	// ArticleID is the opaque content identifier, unique within one
	// aggregated result set after deduplication.
	ArticleID string `json:"articleId"`

	// Title is the article headline.
	Title string `json:"title"`

	// Category is the editorial section the article belongs to.
	Category string `json:"category,omitempty"`

	// Tags is an unordered set of topic tags.
	Tags []string `json:"tags,omitempty"`

	// Score is the feed-local relevance in [0, 1].
	Score float64 `json:"score"`

	// Confidence is the model certainty, distinct from Score. Zero means
	// the backend did not report one.
	Confidence float64 `json:"confidence,omitempty"`

	// Source is the feed this entry was kept from after deduplication.
	Source Source `json:"source"`

	// Sources lists every feed that proposed this article. Populated by
	// the aggregator for UI badge display ("personal + trending").
	Sources []Source `json:"sources,omitempty"`

	// PublishDate is when the article was published.
	PublishDate time.Time `json:"publishDate,omitempty"`

	// ReadingTime is the estimated reading time in minutes.
	ReadingTime int `json:"readingTime,omitempty"`

	// Reasoning is an optional human-readable explanation, used only for
	// featured presentation.
	Reasoning string `json:"reasoning,omitempty"`
}

// Interaction is an observed user action, sent once to the backend and folded
// into session analytics.
type Interaction struct {
	ArticleID string          `json:"articleId"`
	Type      InteractionType `json:"type"`
	Source    Source          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// MixPosition describes where to inject recommendation cards into the primary
// content stream: after the primary item at AfterItem, emit up to Count cards.
type MixPosition struct {
	// AfterItem is the number of primary items emitted before the cards:
	// AfterItem 3 injects after the third primary item.
	AfterItem int `json:"after_item" koanf:"after_item"`

	// Count is how many cards to inject at this position.
	Count int `json:"count" koanf:"count"`
}

// MixedKind discriminates the two arms of MixedItem.
type MixedKind int

const (
	// MixedPrimary marks an item from the primary content stream.
	MixedPrimary MixedKind = iota
	// MixedRecommendation marks an injected recommendation card.
	MixedRecommendation
)

// String returns a human-readable kind name.
func (k MixedKind) String() string {
	switch k {
	case MixedPrimary:
		return "primary"
	case MixedRecommendation:
		return "recommendation"
	default:
		return "unknown"
	}
}

// MixedItem is one entry of a mixed feed: either a primary item or an
// injected recommendation card, discriminated by Kind.
type MixedItem[T any] struct {
	Kind           MixedKind       `json:"kind"`
	Primary        T               `json:"primary,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// SortKey selects the ordering applied after aggregation.
type SortKey int

const (
	// SortByScore orders by relevance score, descending. The default.
	SortByScore SortKey = iota
	// SortByPublishDate orders by publish date, newest first.
	SortByPublishDate
	// SortByConfidence orders by model confidence, descending.
	SortByConfidence
	// SortByReadingTime orders by estimated reading time, shortest first.
	SortByReadingTime
)

// String returns the wire name for the sort key.
func (k SortKey) String() string {
	switch k {
	case SortByScore:
		return "score"
	case SortByPublishDate:
		return "publish_date"
	case SortByConfidence:
		return "confidence"
	case SortByReadingTime:
		return "reading_time"
	default:
		return "unknown"
	}
}

// ParseSortKey converts a wire name to a SortKey. Empty input selects the
// default score ordering.
func ParseSortKey(name string) (SortKey, error) {
	switch name {
	case "", "score":
		return SortByScore, nil
	case "publish_date", "publishDate":
		return SortByPublishDate, nil
	case "confidence":
		return SortByConfidence, nil
	case "reading_time", "readingTime":
		return SortByReadingTime, nil
	default:
		return SortByScore, fmt.Errorf("unknown sort key %q", name)
	}
}

// SessionAnalytics is a snapshot of the per-session counters.
type SessionAnalytics struct {
	// ViewedRecommendations counts recommendation cards seen this session.
	ViewedRecommendations int `json:"viewed_recommendations"`

	// ClickedRecommendations counts recommendation cards opened.
	ClickedRecommendations int `json:"clicked_recommendations"`

	// ClickThroughRate is clicked / max(viewed, 1).
	ClickThroughRate float64 `json:"click_through_rate"`

	// AverageReadingTime is the mean of reported reading durations.
	AverageReadingTime time.Duration `json:"average_reading_time"`

	// StartedAt is when the session counters were last reset.
	StartedAt time.Time `json:"started_at"`
}
