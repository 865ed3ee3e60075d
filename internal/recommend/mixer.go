// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import "fmt"

// ValidatePositions checks an injection table for programmer error:
// non-positive positions, non-increasing positions, or non-positive card
// counts.
func ValidatePositions(positions []MixPosition) error {
	prev := 0
	for i, p := range positions {
		if p.AfterItem < 1 {
			return fmt.Errorf("position %d: after_item must be at least 1, got %d", i, p.AfterItem)
		}
		if p.AfterItem <= prev {
			return fmt.Errorf("position %d: after_item values must be strictly increasing (%d after %d)",
				i, p.AfterItem, prev)
		}
		if p.Count < 1 {
			return fmt.Errorf("position %d: count must be at least 1, got %d", i, p.Count)
		}
		prev = p.AfterItem
	}
	return nil
}

// Mix interleaves recommendation cards into a primary content stream at the
// configured positions.
//
// The primary list is emitted in full and in order. After the first AfterItem
// primary items of each position, up to Count cards are pulled from recs in
// their given order; a cursor guarantees no card appears twice in one pass.
// When recs runs out, remaining positions emit zero cards; when the primary
// list is shorter than a position, that position is never reached. Missing
// recommendations therefore degrade the feed gracefully instead of failing
// it.
//
// An invalid position table is programmer error and returns an error; empty
// inputs never do.
func Mix[T any](primary []T, recs []Recommendation, positions []MixPosition) ([]MixedItem[T], error) {
	if err := ValidatePositions(positions); err != nil {
		return nil, err
	}

	capacity := len(primary)
	for _, p := range positions {
		capacity += p.Count
	}

	out := make([]MixedItem[T], 0, capacity)
	cursor := 0
	pos := 0

	for i := range primary {
		out = append(out, MixedItem[T]{Kind: MixedPrimary, Primary: primary[i]})

		if pos >= len(positions) || positions[pos].AfterItem != i+1 {
			continue
		}
		for n := 0; n < positions[pos].Count && cursor < len(recs); n++ {
			out = append(out, MixedItem[T]{
				Kind:           MixedRecommendation,
				Recommendation: &recs[cursor],
			})
			cursor++
		}
		pos++
	}

	return out, nil
}
