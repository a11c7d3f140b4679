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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCache_HitAndMiss(t *testing.T) {
	c := NewVectorCache(10, EvictFIFO)

	_, ok := c.Get("bench press")
	assert.False(t, ok)

	c.Put("bench press", []float32{0.1, 0.2})
	vec, ok := c.Get("bench press")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, 1, c.Len())
}

func TestVectorCache_FIFOEvictsOldestInserted(t *testing.T) {
	c := NewVectorCache(3, EvictFIFO)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Put("c", []float32{3})

	// Reading "a" must not protect it: FIFO ignores recency.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", []float32{4})
	assert.Equal(t, 3, c.Len())

	_, ok = c.Get("a")
	assert.False(t, ok, "oldest inserted entry should be evicted")
	for _, key := range []string{"b", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "key %q should survive", key)
	}
}

func TestVectorCache_LRUProtectsRecentlyRead(t *testing.T) {
	c := NewVectorCache(3, EvictLRU)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Put("c", []float32{3})

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", []float32{4})

	_, ok = c.Get("a")
	assert.True(t, ok, "recently read entry should survive under LRU")
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
}

func TestVectorCache_OverwriteDoesNotEvict(t *testing.T) {
	c := NewVectorCache(2, EvictFIFO)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Put("a", []float32{9})

	assert.Equal(t, 2, c.Len())
	vec, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{9}, vec)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestVectorCache_CapacityFallback(t *testing.T) {
	c := NewVectorCache(0, EvictFIFO)
	for i := 0; i < DefaultCacheCapacity+5; i++ {
		c.Put(fmt.Sprintf("key-%d", i), []float32{float32(i)})
	}
	assert.Equal(t, DefaultCacheCapacity, c.Len())
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "bench press", NormalizeQuery("  Bench   PRESS "))
	assert.Equal(t, "chest exercises", NormalizeQuery("Chest\n\texercises"))
	assert.Equal(t, "", NormalizeQuery("   "))
}
