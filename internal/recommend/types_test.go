// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestSourceRoundTrip(t *testing.T) {
	tests := []struct {
		source Source
		wire   string
	}{
		{SourcePersonal, "personal"},
		{SourceTrending, "trending"},
		{SourceSimilar, "similar"},
		{SourceOrganic, "organic"},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			if got := tt.source.String(); got != tt.wire {
				t.Errorf("String() = %q, want %q", got, tt.wire)
			}

			data, err := json.Marshal(tt.source)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(data) != `"`+tt.wire+`"` {
				t.Errorf("Marshal = %s", data)
			}

			var back Source
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if back != tt.source {
				t.Errorf("round trip = %v, want %v", back, tt.source)
			}
		})
	}
}

func TestParseSourceUnknown(t *testing.T) {
	if _, err := ParseSource("editorial"); err == nil {
		t.Error("ParseSource accepted unknown name")
	}
}

func TestFeedSourcesExcludeOrganic(t *testing.T) {
	for _, src := range FeedSources {
		if src == SourceOrganic {
			t.Error("organic listed as a fetchable feed")
		}
	}
	if len(FeedSources) != 3 {
		t.Errorf("FeedSources = %v, want the three backend feeds", FeedSources)
	}
}

func TestInteractionTypeWeights(t *testing.T) {
	tests := []struct {
		typ    InteractionType
		wire   string
		weight float64
	}{
		{InteractionView, "view", 0.1},
		{InteractionClick, "click", 0.3},
		{InteractionLike, "like", 0.5},
		{InteractionBookmark, "bookmark", 0.6},
		{InteractionShare, "share", 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.wire {
				t.Errorf("String() = %q, want %q", got, tt.wire)
			}
			if got := tt.typ.Weight(); got != tt.weight {
				t.Errorf("Weight() = %v, want %v", got, tt.weight)
			}

			parsed, err := ParseInteractionType(tt.wire)
			if err != nil || parsed != tt.typ {
				t.Errorf("ParseInteractionType(%q) = %v, %v", tt.wire, parsed, err)
			}
		})
	}

	if _, err := ParseInteractionType("upvote"); err == nil {
		t.Error("ParseInteractionType accepted unknown name")
	}
}

func TestInteractionJSON(t *testing.T) {
	var in Interaction
	payload := `{"articleId":"a1","type":"bookmark","source":"similar"}`
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if in.ArticleID != "a1" || in.Type != InteractionBookmark || in.Source != SourceSimilar {
		t.Errorf("decoded %+v", in)
	}

	if err := json.Unmarshal([]byte(`{"type":"upvote"}`), &in); err == nil {
		t.Error("accepted unknown interaction type")
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		name    string
		want    SortKey
		wantErr bool
	}{
		{"score", SortByScore, false},
		{"publish_date", SortByPublishDate, false},
		{"confidence", SortByConfidence, false},
		{"reading_time", SortByReadingTime, false},
		{"", SortByScore, false},
		{"alphabetical", SortByScore, true},
	}

	for _, tt := range tests {
		got, err := ParseSortKey(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortKey(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseSortKey(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
