// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"sort"
	"strings"
)

// AggregateOptions narrows and orders the aggregated candidate pool.
type AggregateOptions struct {
	// Query is a case-insensitive substring matched against title,
	// category and tags. Empty means no text filter.
	Query string

	// SourceFilter keeps only entries proposed by this feed. Nil passes
	// everything through.
	SourceFilter *Source

	// Sort selects the result ordering. Ties keep flattened feed order.
	Sort SortKey

	// Limit caps the result length. Zero means unlimited.
	Limit int
}

// Aggregate merges per-feed candidate lists into one deduplicated pool.
//
// Feeds are flattened in canonical order (personal, trending, similar). When
// the same article appears in several feeds the entry with the highest score
// is kept and the contributing source set is merged for badge display. An
// empty input map yields an empty result, never an error.
func Aggregate(feeds map[Source][]Recommendation, opts AggregateOptions) []Recommendation {
	flat := flatten(feeds)
	pool := dedupe(flat)
	pool = filterPool(pool, opts)
	sortPool(pool, opts.Sort)

	if opts.Limit > 0 && len(pool) > opts.Limit {
		pool = pool[:opts.Limit]
	}
	return pool
}

// indexed carries the flattened position used for stable tie-breaking.
type indexed struct {
	rec   Recommendation
	order int
}

// flatten concatenates feeds in canonical source order, tagging each entry
// with its origin.
func flatten(feeds map[Source][]Recommendation) []indexed {
	total := 0
	for _, recs := range feeds {
		total += len(recs)
	}

	flat := make([]indexed, 0, total)
	for _, src := range FeedSources {
		for _, rec := range feeds[src] {
			rec.Source = src
			rec.Sources = []Source{src}
			flat = append(flat, indexed{rec: rec, order: len(flat)})
		}
	}
	return flat
}

// dedupe collapses duplicate article IDs, keeping the highest-scored entry
// and merging the source sets. Result order follows each survivor's first
// appearance in the flattened input.
func dedupe(flat []indexed) []Recommendation {
	byID := make(map[string]int, len(flat))
	out := make([]Recommendation, 0, len(flat))

	for i := range flat {
		rec := flat[i].rec
		pos, seen := byID[rec.ArticleID]
		if !seen {
			byID[rec.ArticleID] = len(out)
			out = append(out, rec)
			continue
		}

		kept := &out[pos]
		kept.Sources = mergeSources(kept.Sources, rec.Sources)
		if rec.Score > kept.Score {
			sources := kept.Sources
			*kept = rec
			kept.Sources = sources
		}
	}
	return out
}

// mergeSources unions two source sets, preserving first-seen order.
func mergeSources(a, b []Source) []Source {
	out := append([]Source(nil), a...)
	for _, src := range b {
		found := false
		for _, have := range out {
			if have == src {
				found = true
				break
			}
		}
		if !found {
			out = append(out, src)
		}
	}
	return out
}

// filterPool applies the text and source filters.
func filterPool(pool []Recommendation, opts AggregateOptions) []Recommendation {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	if query == "" && opts.SourceFilter == nil {
		return pool
	}

	out := pool[:0]
	for _, rec := range pool {
		if opts.SourceFilter != nil && !hasSource(rec, *opts.SourceFilter) {
			continue
		}
		if query != "" && !matchesQuery(rec, query) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// hasSource reports whether any contributing feed matches src.
func hasSource(rec Recommendation, src Source) bool {
	for _, have := range rec.Sources {
		if have == src {
			return true
		}
	}
	return rec.Source == src
}

// matchesQuery reports whether the lowercased query occurs in the title,
// category, or any tag.
func matchesQuery(rec Recommendation, query string) bool {
	if strings.Contains(strings.ToLower(rec.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(rec.Category), query) {
		return true
	}
	for _, tag := range rec.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// sortPool orders the pool by the given key. The sort is stable so equal
// keys keep their flattened feed order, which tests rely on.
func sortPool(pool []Recommendation, key SortKey) {
	switch key {
	case SortByScore:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Score > pool[j].Score
		})
	case SortByPublishDate:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].PublishDate.After(pool[j].PublishDate)
		})
	case SortByConfidence:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Confidence > pool[j].Confidence
		})
	case SortByReadingTime:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].ReadingTime < pool[j].ReadingTime
		})
	}
}
