// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"testing"
)

func recsByID(ids ...string) []Recommendation {
	recs := make([]Recommendation, len(ids))
	for i, id := range ids {
		recs[i] = Recommendation{ArticleID: id}
	}
	return recs
}

// rendered flattens a mixed stream into identifiers for comparison.
func rendered(items []MixedItem[string]) []string {
	out := make([]string, len(items))
	for i := range items {
		if items[i].Kind == MixedPrimary {
			out[i] = items[i].Primary
		} else {
			out[i] = items[i].Recommendation.ArticleID
		}
	}
	return out
}

func TestMixInterleavesAtPositions(t *testing.T) {
	primary := []string{"a", "b", "c", "d", "e"}
	recs := recsByID("r1", "r2", "r3")
	positions := []MixPosition{
		{AfterItem: 1, Count: 1},
		{AfterItem: 3, Count: 2},
	}

	items, err := Mix(primary, recs, positions)
	if err != nil {
		t.Fatalf("Mix() error = %v", err)
	}

	want := []string{"a", "r1", "b", "c", "r2", "r3", "d", "e"}
	got := rendered(items)
	if len(got) != len(want) {
		t.Fatalf("Mix() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Mix()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMixEmptyRecommendations(t *testing.T) {
	primary := []string{"a", "b", "c"}
	positions := []MixPosition{{AfterItem: 1, Count: 2}}

	items, err := Mix(primary, nil, positions)
	if err != nil {
		t.Fatalf("Mix() error = %v", err)
	}

	got := rendered(items)
	if len(got) != 3 {
		t.Fatalf("Mix() = %v, want primary unchanged", got)
	}
	for i, id := range []string{"a", "b", "c"} {
		if got[i] != id {
			t.Errorf("Mix()[%d] = %q, want %q", i, got[i], id)
		}
	}
}

func TestMixShortPrimarySkipsUnreachedPositions(t *testing.T) {
	primary := []string{"a", "b"}
	recs := recsByID("r1", "r2")
	positions := []MixPosition{
		{AfterItem: 1, Count: 1},
		{AfterItem: 5, Count: 1}, // never reached
	}

	items, err := Mix(primary, recs, positions)
	if err != nil {
		t.Fatalf("Mix() error = %v", err)
	}

	want := []string{"a", "r1", "b"}
	got := rendered(items)
	if len(got) != len(want) {
		t.Fatalf("Mix() = %v, want %v", got, want)
	}
}

func TestMixExhaustsRecommendationsWithoutRepeating(t *testing.T) {
	primary := []string{"a", "b", "c", "d"}
	recs := recsByID("r1")
	positions := []MixPosition{
		{AfterItem: 1, Count: 2},
		{AfterItem: 3, Count: 2},
	}

	items, err := Mix(primary, recs, positions)
	if err != nil {
		t.Fatalf("Mix() error = %v", err)
	}

	seen := map[string]int{}
	for _, id := range rendered(items) {
		seen[id]++
	}
	if seen["r1"] != 1 {
		t.Errorf("r1 appeared %d times, want exactly 1", seen["r1"])
	}
	if len(items) != 5 {
		t.Errorf("len = %d, want 5", len(items))
	}
}

func TestMixEmptyPrimary(t *testing.T) {
	items, err := Mix[string](nil, recsByID("r1"), []MixPosition{{AfterItem: 1, Count: 1}})
	if err != nil {
		t.Fatalf("Mix() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Mix() = %v, want empty", items)
	}
}

func TestValidatePositions(t *testing.T) {
	tests := []struct {
		name      string
		positions []MixPosition
		wantErr   bool
	}{
		{"empty table", nil, false},
		{"valid", []MixPosition{{AfterItem: 3, Count: 1}, {AfterItem: 6, Count: 2}}, false},
		{"zero after_item", []MixPosition{{AfterItem: 0, Count: 1}}, true},
		{"negative after_item", []MixPosition{{AfterItem: -1, Count: 1}}, true},
		{"not increasing", []MixPosition{{AfterItem: 3, Count: 1}, {AfterItem: 3, Count: 1}}, true},
		{"decreasing", []MixPosition{{AfterItem: 5, Count: 1}, {AfterItem: 2, Count: 1}}, true},
		{"zero count", []MixPosition{{AfterItem: 3, Count: 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositions(tt.positions)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePositions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMixRejectsInvalidPositions(t *testing.T) {
	_, err := Mix([]string{"a"}, nil, []MixPosition{{AfterItem: 0, Count: 1}})
	if err == nil {
		t.Error("Mix() accepted invalid position table")
	}
}
