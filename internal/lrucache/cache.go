// Package lrucache wraps hashicorp's golang-lru for the per-(station,year)
// CSV frames the Meteostat provider downloads. Keeping it as its own small
// package means the eviction policy isn't tangled into provider logic.
package lrucache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies one cached CSV frame: a single station's single year.
type Key struct {
	StationID string
	Year      int
}

// Cache is a fixed-capacity, thread-safe LRU of decoded CSV frames, keyed by
// station/year. The value type is left generic so callers can cache parsed
// rows rather than raw bytes.
type Cache[V any] struct {
	inner *lru.Cache[Key, V]
}

// New constructs a Cache holding at most size entries.
func New[V any](size int) (*Cache[V], error) {
	inner, err := lru.New[Key, V](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{inner: inner}, nil
}

// Get returns the cached value for key, if present.
func (c *Cache[V]) Get(key Key) (V, bool) {
	return c.inner.Get(key)
}

// Add inserts or updates the cached value for key.
func (c *Cache[V]) Add(key Key, value V) {
	c.inner.Add(key, value)
}

// Contains reports whether key is cached without affecting recency.
func (c *Cache[V]) Contains(key Key) bool {
	return c.inner.Contains(key)
}

// Remove evicts key, if present.
func (c *Cache[V]) Remove(key Key) {
	c.inner.Remove(key)
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	return c.inner.Len()
}
