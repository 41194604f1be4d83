package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRUCache(2)
	c.set("a", []byte("1"), time.Minute)
	c.set("b", []byte("2"), time.Minute)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.get("a"); !ok {
		t.Fatal("a missing before eviction")
	}
	c.set("c", []byte("3"), time.Minute)

	if _, ok := c.get("b"); ok {
		t.Fatal("b survived eviction")
	}
	if _, ok := c.get("a"); !ok {
		t.Fatal("a evicted despite recent use")
	}
	if c.len() != 2 {
		t.Fatalf("len=%d, want 2", c.len())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := newLRUCache(4)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.set("k", []byte("v"), time.Minute)
	if _, ok := c.get("k"); !ok {
		t.Fatal("fresh entry missing")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get("k"); ok {
		t.Fatal("expired entry served")
	}
}

func TestLRUOverwriteKeepsSingleEntry(t *testing.T) {
	c := newLRUCache(2)
	c.set("k", []byte("v1"), time.Minute)
	c.set("k", []byte("v2"), time.Minute)
	if c.len() != 1 {
		t.Fatalf("len=%d, want 1", c.len())
	}
	v, ok := c.get("k")
	if !ok || string(v) != "v2" {
		t.Fatalf("got %q ok=%v, want v2", v, ok)
	}
}
