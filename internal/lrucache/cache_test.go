package lrucache

import "testing"

func TestCacheAddAndGet(t *testing.T) {
	c, err := New[[]int](2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key{StationID: "72219", Year: 2024}
	c.Add(key, []int{1, 2, 3})

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 elements", got)
	}

	if _, ok := c.Get(Key{StationID: "missing", Year: 2024}); ok {
		t.Fatal("expected cache miss for unknown key")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New[int](2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	k1 := Key{StationID: "a", Year: 2023}
	k2 := Key{StationID: "b", Year: 2023}
	k3 := Key{StationID: "c", Year: 2023}

	c.Add(k1, 1)
	c.Add(k2, 2)
	c.Add(k3, 2024) // evicts k1, capacity is 2

	if c.Contains(k1) {
		t.Fatal("expected k1 to have been evicted")
	}
	if !c.Contains(k2) || !c.Contains(k3) {
		t.Fatal("expected k2 and k3 to remain cached")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheRemove(t *testing.T) {
	c, err := New[int](2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key{StationID: "a", Year: 2023}
	c.Add(key, 1)
	c.Remove(key)
	if c.Contains(key) {
		t.Fatal("expected key to be removed")
	}
}
