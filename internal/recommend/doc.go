// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

/*
Package recommend implements the personalized-content core of Feedweaver:
retrieval of ranked candidate lists from the ranking backend, score
normalization, feed aggregation, content mixing, and interaction telemetry.

# Components

  - Client fetches the personal, trending and similar feeds over HTTP,
    normalizes scores, caches responses by (feed, params) with a short TTL,
    and coalesces concurrent fetches for the same key into one round-trip.
    A circuit breaker guards the ranking backend.
  - Aggregate merges the three feeds into one candidate pool: deduplicates by
    article ID keeping the highest score, merges the contributing source set,
    applies text and source filters, and sorts with a stable order.
  - Mix interleaves aggregated recommendation cards into a primary article
    stream at configured positions, bounding injected-card density and never
    emitting the same card twice in one pass.
  - Tracker records user interactions: debounced per (article, type),
    counted into session analytics, and posted to the backend as best-effort
    telemetry that never blocks or fails the reading experience.
  - Analytics accumulates per-session counters (views, clicks, click-through
    rate, reading time) behind an explicit handle with Snapshot and Reset.

# Error taxonomy

Fetches fail with *NetworkError when no usable response arrives and with
*InvalidResponseError when a response arrives but does not match the expected
shape. An empty recommendation list is a valid result, never an error.
Telemetry recording swallows all errors internally.

The package has no dependencies on other internal packages except cache and
metrics, so it stays usable as a standalone library.
*/
package recommend
