// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU[string](4, time.Minute)

	t.Run("miss on empty cache", func(t *testing.T) {
		if _, ok := c.Get("absent"); ok {
			t.Error("Get on empty cache returned ok")
		}
	})

	t.Run("hit after set", func(t *testing.T) {
		c.Set("a", "alpha")
		got, ok := c.Get("a")
		if !ok {
			t.Fatal("expected hit")
		}
		if got != "alpha" {
			t.Errorf("got %q, want %q", got, "alpha")
		}
	})

	t.Run("set updates existing value", func(t *testing.T) {
		c.Set("a", "updated")
		got, _ := c.Get("a")
		if got != "updated" {
			t.Errorf("got %q, want %q", got, "updated")
		}
		if c.Len() != 1 {
			t.Errorf("Len() = %d, want 1", c.Len())
		}
	})
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the oldest.
	c.Get("a")
	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted as least recently used")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to survive eviction", key)
		}
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU[int](8, 50*time.Millisecond)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("a", 1)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired before TTL")
	}

	current = current.Add(51 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("entry survived past TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed lazily, Len() = %d", c.Len())
	}
}

func TestLRU_RemoveAndPurge(t *testing.T) {
	c := NewLRU[int](8, time.Minute)
	for i := range 5 {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	if !c.Remove("k2") {
		t.Error("Remove returned false for present key")
	}
	if c.Remove("k2") {
		t.Error("Remove returned true for absent key")
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d, want 0", c.Len())
	}

	// The recency list must still be usable after a purge.
	c.Set("fresh", 9)
	if _, ok := c.Get("fresh"); !ok {
		t.Error("cache unusable after Purge")
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses := c.Stats()
	if hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}

func TestNewLRU_Defaults(t *testing.T) {
	c := NewLRU[int](0, 0)
	if c.capacity <= 0 {
		t.Error("default capacity not applied")
	}
	if c.ttl <= 0 {
		t.Error("default TTL not applied")
	}
}
