package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndTakeIsReadOnce(t *testing.T) {
	c := New(10)
	c.Put(Decision{VnodeID: 1, Tag: "BLOCK_BINARY", SHA256: "abc"})

	d, ok := c.Take(1)
	require.True(t, ok)
	assert.Equal(t, "abc", d.SHA256)

	_, ok = c.Take(1)
	assert.False(t, ok)
}

func TestEvictsOldestWhenFull(t *testing.T) {
	c := New(2)
	c.Put(Decision{VnodeID: 1})
	c.Put(Decision{VnodeID: 2})
	c.Put(Decision{VnodeID: 3})

	assert.Equal(t, 2, c.Count())
	_, ok := c.Take(1)
	assert.False(t, ok, "oldest entry should have been evicted")
}

func TestClearBumpsGeneration(t *testing.T) {
	c := New(10)
	c.Put(Decision{VnodeID: 1})
	assert.Equal(t, uint64(0), c.Generation())

	c.Clear()
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, uint64(1), c.Generation())
}

func TestDefaultCapacity(t *testing.T) {
	c := New(0)
	assert.Equal(t, defaultCapacity, c.capacity)
}
