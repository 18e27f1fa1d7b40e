package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestGetAndSet(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected a miss on an empty cache")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("expected (1, true), got (%d, %v)", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Set on an existing key must update the value, got %d", v)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after updating in place, got %d", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	// A constant hash pins every key to one shard so the per-shard capacity
	// is exercised deterministically.
	c := NewSharded[string, int](2, func(string) uint64 { return 0 })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // bump "a" so "b" is now the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry must be evicted at capacity")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry must survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newly inserted entry must be present")
	}
	if c.Len() != 2 {
		t.Errorf("expected the shard to hold exactly its capacity, got %d", c.Len())
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)
	c.Set("a", 1)
	c.Set("b", 2)

	if !c.Delete("a") {
		t.Error("Delete must report true for a present key")
	}
	if c.Delete("a") {
		t.Error("Delete must report false for an absent key")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry must not be retrievable")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected an empty cache after Clear, got %d entries", c.Len())
	}

	// Eviction order must stay consistent after Clear.
	c.Set("x", 1)
	if v, ok := c.Get("x"); !ok || v != 1 {
		t.Errorf("cache must be usable after Clear, got (%d, %v)", v, ok)
	}
}

func TestDefaultCapacity(t *testing.T) {
	c := NewSharded[string, int](0, StringHasher)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("expected non-positive capacity to default to %d, got %d", DefaultCapacity, c.Capacity())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewSharded[string, int](64, StringHasher)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := fmt.Sprintf("k%d", (g*100+i)%50)
				c.Set(key, i)
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	if c.Len() == 0 || c.Len() > 50 {
		t.Errorf("expected between 1 and 50 distinct entries, got %d", c.Len())
	}
}
