package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[string](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("expected hit with 1, got %q ok=%v", v, ok)
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so b is the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive, it was used most recently")
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Error("entry past its TTL should miss")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be removed on access, size %d", c.Size())
	}
}

func TestLRUOverwrite(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("a", 2)

	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("expected overwritten value 2, got %d", v)
	}
	if c.Size() != 1 {
		t.Errorf("overwrite should not grow the cache, size %d", c.Size())
	}
}
