package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU(t *testing.T) {
	c := newLRU[int](2)

	c.put("a", 1)
	c.put("b", 2)
	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// b is now the least recently used entry
	c.put("c", 3)
	_, ok = c.get("b")
	assert.False(t, ok)

	c.put("a", 10)
	v, _ = c.get("a")
	assert.Equal(t, 10, v)

	assert.Equal(t, CacheStats{Hits: 2, Misses: 1, Size: 2, Capacity: 2}, c.stats())
}
