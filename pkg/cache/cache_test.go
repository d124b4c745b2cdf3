package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertAndRetrieve(t *testing.T) {
	c := NewCache[string, int](10)

	require.NoError(t, c.Insert("a", 1, 1))
	require.NoError(t, c.Insert("b", 2, 3))
	assert.Equal(t, 4, c.GetWeight())
	assert.Equal(t, 10, c.GetBudget())

	actual, ok := c.Retrieve("b")
	require.True(t, ok)
	assert.Equal(t, 2, actual)

	_, ok = c.Retrieve("missing")
	assert.False(t, ok)

	assert.Equal(t, ErrKeyExists, c.Insert("a", 5, 1))
	actual, _ = c.Retrieve("a")
	assert.Equal(t, 1, actual)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache[string, string](3)
	c.SetVerbose(true)

	require.NoError(t, c.Insert("a", "A", 1))
	require.NoError(t, c.Insert("b", "B", 1))
	require.NoError(t, c.Insert("c", "C", 1))

	// Touch a so b becomes the eviction candidate
	_, ok := c.Retrieve("a")
	require.True(t, ok)

	require.NoError(t, c.Insert("d", "D", 1))
	assert.Equal(t, 3, c.GetWeight())

	_, ok = c.Retrieve("b")
	assert.False(t, ok)
	for _, key := range []string{"a", "c", "d"} {
		_, ok = c.Retrieve(key)
		assert.True(t, ok, key)
	}

	// A heavy entry pushes out everything older
	require.NoError(t, c.Insert("e", "E", 3))
	assert.Equal(t, 3, c.GetWeight())
	_, ok = c.Retrieve("e")
	assert.True(t, ok)
	_, ok = c.Retrieve("d")
	assert.False(t, ok)
}

func TestCache_RemoveAndClear(t *testing.T) {
	c := NewCache[int, string](5)
	require.NoError(t, c.Insert(1, "one", 2))
	require.NoError(t, c.Insert(2, "two", 2))

	assert.True(t, c.Remove(1))
	assert.False(t, c.Remove(1))
	assert.Equal(t, 2, c.GetWeight())

	require.NoError(t, c.Insert(1, "uno", 2))
	actual, ok := c.Retrieve(1)
	require.True(t, ok)
	assert.Equal(t, "uno", actual)

	c.Clear()
	assert.Equal(t, 0, c.GetWeight())
	_, ok = c.Retrieve(2)
	assert.False(t, ok)
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache[string, int](50)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			key := fmt.Sprintf("key-%d", i)
			_ = c.Insert(key, i, 1)
			_, _ = c.Retrieve(key)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.GetWeight(), c.GetBudget())
}
