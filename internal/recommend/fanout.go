// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"context"
	"sync"
)

// FetchAll fetches every feed concurrently and returns whatever succeeded
// together with the per-feed failures. The similar feed is skipped when no
// anchor article is given. A partially failed fan-out is normal operation:
// callers aggregate the feeds that answered and log the rest.
func (c *Client) FetchAll(ctx context.Context, params Params) (map[Source][]Recommendation, map[Source]error) {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		feeds = make(map[Source][]Recommendation, len(FeedSources))
		fails = make(map[Source]error)
	)

	for _, feed := range FeedSources {
		if feed == SourceSimilar && params.ArticleID == "" {
			continue
		}

		wg.Add(1)
		go func(feed Source) {
			defer wg.Done()

			recs, err := c.FetchRecommendations(ctx, feed, params)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fails[feed] = err
				return
			}
			feeds[feed] = recs
		}(feed)
	}

	wg.Wait()
	return feeds, fails
}
