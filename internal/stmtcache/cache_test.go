package stmtcache

import "testing"

func TestGetPutRoundTrip(t *testing.T) {
	c := New(2)
	c.Put("SELECT 1", Statement{SQL: "SELECT 1", Handle: "h1"})
	got, ok := c.Get("SELECT 1")
	if !ok || got.Handle != "h1" {
		t.Fatalf("got=%+v ok=%v", got, ok)
	}
}

func TestEvictsLeastRecentlyUsedOnlyWhenFullAndKeyAbsent(t *testing.T) {
	c := New(2)
	c.Put("A", Statement{SQL: "A"})
	c.Put("B", Statement{SQL: "B"})
	// Touch A so B becomes LRU.
	c.Get("A")
	evicted, ok := c.Put("C", Statement{SQL: "C"})
	if !ok || evicted.SQL != "B" {
		t.Fatalf("expected B evicted, got %+v ok=%v", evicted, ok)
	}
	if _, ok := c.Get("A"); !ok {
		t.Fatal("A should still be cached")
	}
	if _, ok := c.Get("B"); ok {
		t.Fatal("B should have been evicted")
	}
}

func TestPutExistingKeyNeverEvicts(t *testing.T) {
	c := New(1)
	c.Put("A", Statement{SQL: "A", Handle: 1})
	evicted, ok := c.Put("A", Statement{SQL: "A", Handle: 2})
	if ok {
		t.Fatalf("updating an existing key must not evict, got %+v", evicted)
	}
	got, _ := c.Get("A")
	if got.Handle != 2 {
		t.Fatalf("expected updated handle, got %v", got.Handle)
	}
}

func TestUnboundedCacheNeverEvicts(t *testing.T) {
	c := New(0)
	for i := 0; i < 100; i++ {
		c.Put(string(rune('a'+i%26))+string(rune(i)), Statement{})
	}
	if c.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", c.Len())
	}
}

func TestClearReturnsAllStatements(t *testing.T) {
	c := New(0)
	c.Put("A", Statement{SQL: "A"})
	c.Put("B", Statement{SQL: "B"})
	stmts := c.Clear()
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if c.Len() != 0 {
		t.Fatal("cache should be empty after Clear")
	}
}

func TestRemove(t *testing.T) {
	c := New(0)
	c.Put("A", Statement{SQL: "A"})
	c.Remove("A")
	if _, ok := c.Get("A"); ok {
		t.Fatal("A should have been removed")
	}
}
