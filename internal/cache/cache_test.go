package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *EvalCache {
	t.Helper()
	c, err := OpenAt(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := openTestCache(t)
	q, found := c.Get(0xdeadbeef)
	assert.False(t, found)
	assert.Equal(t, 0.0, q)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put(12345, 0.375))

	q, found := c.Get(12345)
	require.True(t, found)
	assert.Equal(t, 0.375, q)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put(1, 0.1))
	require.NoError(t, c.Put(1, -0.9))

	q, found := c.Get(1)
	require.True(t, found)
	assert.Equal(t, -0.9, q)
}

func TestDistinctHashesDoNotCollide(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put(1, 0.5))
	require.NoError(t, c.Put(2, -0.5))

	q1, _ := c.Get(1)
	q2, _ := c.Get(2)
	assert.Equal(t, 0.5, q1)
	assert.Equal(t, -0.5, q2)
}

func TestCloseOnNilCacheIsSafe(t *testing.T) {
	var c *EvalCache
	assert.NoError(t, c.Close())
}
