// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package embedding

import (
	"strings"
	"sync"
)

// EvictionPolicy selects how the cache makes room at capacity.
type EvictionPolicy int

const (
	// EvictFIFO evicts the oldest inserted key. This is the production
	// policy: eviction is insertion-ordered, not recency-aware.
	EvictFIFO EvictionPolicy = iota

	// EvictLRU evicts the least recently read key. Available for
	// experiments; not the default.
	EvictLRU
)

// DefaultCacheCapacity bounds the query vector cache when the caller does
// not configure one.
const DefaultCacheCapacity = 100

// VectorCache is a bounded key→vector map shared across agent runs.
//
// # Description
//
// Capacity and eviction policy are constructor parameters so tests can
// control capacity and observe eviction deterministically. Keys are
// normalized query strings (see NormalizeQuery).
//
// # Thread Safety
//
// Safe for concurrent use. Concurrent misses for the same key race at the
// provider level; the last writer wins, which is acceptable because both
// writers hold the same vector for the same text.
type VectorCache struct {
	mu       sync.Mutex
	capacity int
	policy   EvictionPolicy
	entries  map[string][]float32
	order    []string // insertion order (FIFO) or recency order (LRU)
}

// NewVectorCache creates a bounded vector cache.
//
// Inputs:
//   - capacity: Maximum entry count. Values < 1 fall back to DefaultCacheCapacity.
//   - policy: Eviction policy at capacity overflow.
func NewVectorCache(capacity int, policy EvictionPolicy) *VectorCache {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	return &VectorCache{
		capacity: capacity,
		policy:   policy,
		entries:  make(map[string][]float32, capacity),
	}
}

// Get returns the cached vector for key, if present.
func (c *VectorCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.entries[key]
	if ok && c.policy == EvictLRU {
		c.touch(key)
	}
	return vec, ok
}

// Put stores a vector under key, evicting the policy's victim when the
// cache is full. Overwriting an existing key does not evict.
func (c *VectorCache) Put(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = vec
		if c.policy == EvictLRU {
			c.touch(key)
		}
		return
	}

	if len(c.entries) >= c.capacity && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, victim)
		cacheEvictions.Inc()
	}

	c.entries[key] = vec
	c.order = append(c.order, key)
}

// Len returns the current entry count.
func (c *VectorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// touch moves key to the back of the order slice. Caller holds the lock.
func (c *VectorCache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}

// NormalizeQuery canonicalizes a query string for use as a cache key:
// lowercase with runs of whitespace collapsed to single spaces.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
