// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nabaa-media/feedweaver/internal/logging"
)

func testClient(t *testing.T, handler http.HandlerFunc, mutate func(*Config)) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Client.BaseURL = srv.URL
	cfg.Client.Timeout = 2 * time.Second
	if mutate != nil {
		mutate(cfg)
	}

	c, err := NewClient(cfg, logging.NewTestLogger(nil))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchRecommendationsNormalizes(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"recommendations":[
			{"articleId":"a1","title":"One","score":0.92,"confidence":0.8,"publishDate":"2026-08-30T10:00:00Z","readingTime":6,"tags":["tech"]},
			{"articleId":"a2","title":"String score","score":"0.75"},
			{"articleId":"a3","title":"Own source","score":0.5,"source":"organic"},
			{"articleId":"","title":"No ID","score":0.9},
			{"articleId":"a5","title":"No score"},
			{"articleId":"a6","title":"Bad score","score":"not-a-number"},
			{"articleId":"a7","title":"Out of range","score":1.7,"confidence":-3,"readingTime":-2}
		]}`)
	}, nil)

	recs, err := client.FetchRecommendations(context.Background(), SourceTrending, Params{})
	if err != nil {
		t.Fatalf("FetchRecommendations: %v", err)
	}

	// a4 (no ID), a5 and a6 (no usable score) are dropped.
	if len(recs) != 4 {
		t.Fatalf("len = %d (%v), want 4", len(recs), recs)
	}

	byID := map[string]Recommendation{}
	for _, rec := range recs {
		byID[rec.ArticleID] = rec
	}

	a1 := byID["a1"]
	if a1.Score != 0.92 || a1.Confidence != 0.8 || a1.ReadingTime != 6 {
		t.Errorf("a1 = %+v", a1)
	}
	if a1.PublishDate.IsZero() {
		t.Error("a1 publish date not parsed")
	}
	if a1.Source != SourceTrending {
		t.Errorf("a1.Source = %v, want feed source", a1.Source)
	}

	if byID["a2"].Score != 0.75 {
		t.Errorf("a2 string score = %v, want 0.75", byID["a2"].Score)
	}
	if byID["a3"].Source != SourceOrganic {
		t.Errorf("a3.Source = %v, want entry-level organic", byID["a3"].Source)
	}

	a7 := byID["a7"]
	if a7.Score != 1 || a7.Confidence != 0 || a7.ReadingTime != 0 {
		t.Errorf("a7 not clamped: %+v", a7)
	}
}

func TestFetchRecommendationsCacheHit(t *testing.T) {
	var calls atomic.Int64
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"recommendations":[{"articleId":"a1","score":0.9}]}`)
	}, nil)

	params := Params{UserID: "u1"}
	first, err := client.FetchRecommendations(context.Background(), SourcePersonal, params)
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.FetchRecommendations(context.Background(), SourcePersonal, params)
	if err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 1 {
		t.Errorf("backend calls = %d, want 1 (second fetch served from cache)", calls.Load())
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs: %v vs %v", first, second)
	}

	// Category order must not affect the cache key.
	if _, err := client.FetchRecommendations(context.Background(), SourcePersonal,
		Params{UserID: "u1", Categories: []string{"b", "a"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := client.FetchRecommendations(context.Background(), SourcePersonal,
		Params{UserID: "u1", Categories: []string{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("backend calls = %d, want 2 (category order irrelevant)", calls.Load())
	}
}

func TestFetchRecommendationsCachedCopyIsIsolated(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"recommendations":[{"articleId":"a1","title":"Original","score":0.9}]}`)
	}, nil)

	first, err := client.FetchRecommendations(context.Background(), SourceTrending, Params{})
	if err != nil {
		t.Fatal(err)
	}
	first[0].Title = "mutated by caller"

	second, err := client.FetchRecommendations(context.Background(), SourceTrending, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if second[0].Title != "Original" {
		t.Errorf("cache entry mutated through returned slice: %q", second[0].Title)
	}
}

func TestFetchRecommendationsCoalesces(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		fmt.Fprint(w, `{"recommendations":[{"articleId":"a1","score":0.9}]}`)
	}, nil)

	const waiters = 8
	var wg sync.WaitGroup
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.FetchRecommendations(context.Background(), SourceTrending, Params{})
		}(i)
	}

	// Let all goroutines join the flight before the backend answers.
	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("backend never called")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("waiter %d: %v", i, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("backend calls = %d, want exactly 1 for concurrent identical requests", calls.Load())
	}
}

func TestFetchRecommendationsWaiterCancellation(t *testing.T) {
	release := make(chan struct{})
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"recommendations":[{"articleId":"a1","score":0.9}]}`)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.FetchRecommendations(ctx, SourceTrending, Params{})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("canceled waiter got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("canceled waiter did not return")
	}

	// The shared fetch keeps running and still populates the cache.
	close(release)
	deadline := time.After(2 * time.Second)
	for {
		recs, err := client.FetchRecommendations(context.Background(), SourceTrending, Params{})
		if err == nil && len(recs) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("shared fetch result never arrived: %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFetchRecommendationsHTTPError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}, nil)

	_, err := client.FetchRecommendations(context.Background(), SourceTrending, Params{})
	if !IsNetworkError(err) {
		t.Fatalf("err = %v, want NetworkError", err)
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatal("errors.As failed")
	}
	if netErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", netErr.StatusCode)
	}
	if netErr.Feed != SourceTrending {
		t.Errorf("Feed = %v, want trending", netErr.Feed)
	}
}

func TestFetchRecommendationsInvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"recommendations":`},
		{"missing array", `{"status":"ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}, nil)

			_, err := client.FetchRecommendations(context.Background(), SourceSimilar, Params{ArticleID: "x"})
			if !IsInvalidResponse(err) {
				t.Errorf("err = %v, want InvalidResponseError", err)
			}
		})
	}
}

func TestFetchRecommendationsEmptyArrayIsValid(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"recommendations":[]}`)
	}, nil)

	recs, err := client.FetchRecommendations(context.Background(), SourceTrending, Params{})
	if err != nil {
		t.Fatalf("err = %v, empty array is a valid answer", err)
	}
	if len(recs) != 0 {
		t.Errorf("recs = %v, want empty", recs)
	}
}

func TestFetchRecommendationsRejectsOrganicFeed(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"recommendations":[]}`)
	}, nil)

	if _, err := client.FetchRecommendations(context.Background(), SourceOrganic, Params{}); err == nil {
		t.Error("organic accepted as a fetchable feed")
	}
}

func TestFetchRecommendationsClampsLimit(t *testing.T) {
	var gotLimit atomic.Value
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit.Store(r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"recommendations":[]}`)
	}, nil)

	// Zero limit uses the default.
	if _, err := client.FetchRecommendations(context.Background(), SourceTrending, Params{}); err != nil {
		t.Fatal(err)
	}
	if got := gotLimit.Load(); got != "10" {
		t.Errorf("default limit sent = %v, want 10", got)
	}

	// Excessive limits are capped.
	if _, err := client.FetchRecommendations(context.Background(), SourceTrending, Params{Limit: 999}); err != nil {
		t.Fatal(err)
	}
	if got := gotLimit.Load(); got != "50" {
		t.Errorf("capped limit sent = %v, want 50", got)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int64
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}, func(cfg *Config) {
		cfg.Breaker.FailureThreshold = 3
		cfg.Client.CacheTTL = time.Nanosecond // force a fetch every time
	})

	// Distinct params defeat both cache and coalescing.
	for i := 0; i < 3; i++ {
		params := Params{UserID: fmt.Sprintf("u%d", i)}
		if _, err := client.FetchRecommendations(context.Background(), SourcePersonal, params); err == nil {
			t.Fatal("expected failure")
		}
	}

	before := calls.Load()
	_, err := client.FetchRecommendations(context.Background(), SourcePersonal, Params{UserID: "u-final"})
	if !IsNetworkError(err) {
		t.Fatalf("err = %v, want breaker failure surfaced as NetworkError", err)
	}
	if calls.Load() != before {
		t.Error("breaker open, but the backend was still called")
	}
}

func TestPostInteraction(t *testing.T) {
	var gotPath atomic.Value
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			gotPath.Store(r.URL.Path)
			w.WriteHeader(http.StatusAccepted)
			return
		}
		http.NotFound(w, r)
	}, nil)

	err := client.PostInteraction(context.Background(), Interaction{
		ArticleID: "a1",
		Type:      InteractionClick,
		Source:    SourceTrending,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("PostInteraction: %v", err)
	}
	if gotPath.Load() == nil {
		t.Fatal("no POST reached the backend")
	}
}

func TestPostViewedBatchErrorOnBadStatus(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}, nil)

	if err := client.PostViewedBatch(context.Background(), []string{"a1", "a2"}); err == nil {
		t.Error("PostViewedBatch succeeded against a 503 backend")
	}
}
