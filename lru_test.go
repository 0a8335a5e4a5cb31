package issuecache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_GetPut(t *testing.T) {
	t.Run("miss on empty cache", func(t *testing.T) {
		c := newLRU[string, int](2)
		_, ok := c.get("a")
		assert.False(t, ok)
	})

	t.Run("put replaces the value wholesale", func(t *testing.T) {
		c := newLRU[string, int](2)
		c.put("a", 1)
		c.put("a", 2)

		v, ok := c.get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)
		assert.Equal(t, 1, c.len())
	})

	t.Run("put never evicts by itself", func(t *testing.T) {
		c := newLRU[string, int](1)
		c.put("a", 1)
		c.put("b", 2)
		assert.Equal(t, 2, c.len())
	})
}

func TestLRU_Overflow(t *testing.T) {
	t.Run("no overflow at capacity", func(t *testing.T) {
		c := newLRU[string, int](2)
		c.put("a", 1)
		c.put("b", 2)

		_, _, over := c.overflow()
		assert.False(t, over)
	})

	t.Run("least recently written entry is the victim", func(t *testing.T) {
		c := newLRU[string, int](2)
		c.put("a", 1)
		c.put("b", 2)
		c.put("c", 3)

		k, v, over := c.overflow()
		require.True(t, over)
		assert.Equal(t, "a", k)
		assert.Equal(t, 1, v)
	})

	t.Run("get postpones eviction", func(t *testing.T) {
		c := newLRU[string, int](2)
		c.put("a", 1)
		c.put("b", 2)
		c.get("a")
		c.put("c", 3)

		k, _, over := c.overflow()
		require.True(t, over)
		assert.Equal(t, "b", k)
	})

	t.Run("rewrite postpones eviction", func(t *testing.T) {
		c := newLRU[string, int](2)
		c.put("a", 1)
		c.put("b", 2)
		c.put("a", 10)
		c.put("c", 3)

		k, _, over := c.overflow()
		require.True(t, over)
		assert.Equal(t, "b", k)
	})

	t.Run("victim stays until removed", func(t *testing.T) {
		c := newLRU[string, int](1)
		c.put("a", 1)
		c.put("b", 2)

		k, _, _ := c.overflow()
		k2, _, _ := c.overflow()
		assert.Equal(t, k, k2)

		require.True(t, c.remove(k))
		_, _, over := c.overflow()
		assert.False(t, over)
		assert.Equal(t, []string{"b"}, c.keys())
	})
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c := newLRU[string, int](3)
	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3)

	assert.True(t, c.remove("b"))
	assert.False(t, c.remove("b"))
	assert.Equal(t, []string{"a", "c"}, c.keys())

	c.clear()
	assert.Equal(t, 0, c.len())
	assert.Empty(t, c.keys())

	c.put("d", 4)
	assert.Equal(t, []string{"d"}, c.keys())
}

func TestLRU_Each(t *testing.T) {
	c := newLRU[string, int](3)
	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3)
	c.get("a")

	var visited []string
	err := c.each(func(k string, _ int) error {
		visited = append(visited, k)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, visited)
	assert.Equal(t, []string{"b", "c", "a"}, c.keys(), "each must not reorder entries")

	stop := errors.New("stop")
	visited = nil
	err = c.each(func(k string, _ int) error {
		visited = append(visited, k)
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"b"}, visited)
}
