package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func put(c *LRUCache[string], key, value string) {
	c.GetOrCreate(key, func() string { return value })
}

func TestLRUCache_SlidingExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	put(c, "a", "1")

	clock.advance(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit before expiry")
	}
	// The hit above refreshed the TTL.
	clock.advance(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit after sliding refresh")
	}
	clock.advance(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after idle expiry")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed, size=%d", c.Size())
	}
}

func TestLRUCache_CapacityEvictsOldest(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	var evicted []string
	c.OnEvict(func(key, _ string) { evicted = append(evicted, key) })

	put(c, "a", "1")
	put(c, "b", "2")
	c.Get("a") // a is now most recent
	put(c, "c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("unexpected evictions: %v", evicted)
	}
}

func TestLRUCache_GetOrCreate(t *testing.T) {
	c, _ := newTestCache(4, time.Hour)
	calls := 0
	create := func() string { calls++; return "v" }

	v, created := c.GetOrCreate("k", create)
	if !created || v != "v" {
		t.Fatalf("first call: v=%q created=%v", v, created)
	}
	v, created = c.GetOrCreate("k", create)
	if created || v != "v" || calls != 1 {
		t.Fatalf("second call: v=%q created=%v calls=%d", v, created, calls)
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	var evicted []string
	c.OnEvict(func(key, _ string) { evicted = append(evicted, key) })

	put(c, "old", "1")
	clock.advance(30 * time.Second)
	put(c, "new", "2")
	clock.advance(45 * time.Second)

	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", n)
	}
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Fatalf("unexpected evictions: %v", evicted)
	}
	if c.Size() != 1 {
		t.Fatalf("size=%d, want 1", c.Size())
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c, _ := newTestCache(4, time.Hour)
	evicted := 0
	c.OnEvict(func(string, string) { evicted++ })
	put(c, "a", "1")

	v, ok := c.Delete("a")
	if !ok || v != "1" {
		t.Fatalf("Delete = %q, %v", v, ok)
	}
	if _, ok := c.Delete("a"); ok {
		t.Fatal("second Delete should miss")
	}
	if c.Size() != 0 || evicted != 0 {
		t.Fatalf("size=%d evicted=%d", c.Size(), evicted)
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	m.Stop()
	m.Stop()
}

func TestManager_Sweep(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	put(c, "a", "1")
	clock.advance(2 * time.Minute)

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(time.Hour)
	defer m.Stop()

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
}
