package routerclient

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCachePutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.txt")
	c := newDiskCache(path, nil)
	defer c.Close()

	c.Put(42.123456, -8.654321, 42.2, -8.3, 17)
	minutes, ok := c.Get(42.123456, -8.654321, 42.2, -8.3)
	require.True(t, ok)
	assert.Equal(t, 17, minutes)
	assert.Equal(t, int64(1), c.HitCount())
}

func TestDiskCacheRound5KeyCollapsesNearbyCoords(t *testing.T) {
	k1 := newCacheKey(42.123456, -8.654321, 1, 1)
	k2 := newCacheKey(42.1234564, -8.6543211, 1, 1)
	assert.Equal(t, k1, k2)
}

func TestDiskCachePersistsAcrossClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.txt")

	c := newDiskCache(path, nil)
	c.Put(1, 1, 2, 2, 9)
	c.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "=9")

	reloaded := newDiskCache(path, nil)
	defer reloaded.Close()
	minutes, ok := reloaded.Get(1, 1, 2, 2)
	require.True(t, ok)
	assert.Equal(t, 9, minutes)
}

func TestParseCacheLineRejectsMalformed(t *testing.T) {
	_, _, ok := parseCacheLine("not a valid line")
	assert.False(t, ok)

	key, minutes, ok := parseCacheLine("1.00000,2.00000|3.00000,4.00000=12")
	require.True(t, ok)
	assert.Equal(t, 12, minutes)
	assert.Equal(t, cacheKey{1, 2, 3, 4}, key)
}

func TestDiskCacheMissingFileIsNotAnError(t *testing.T) {
	c := newDiskCache(filepath.Join(t.TempDir(), "does-not-exist.txt"), nil)
	defer c.Close()
	_, ok := c.Get(1, 1, 2, 2)
	assert.False(t, ok)
}

func TestDiskCacheEmptyPathNeverFlushes(t *testing.T) {
	c := newDiskCache("", nil)
	c.Put(1, 1, 2, 2, 5)
	time.Sleep(10 * time.Millisecond)
	c.Close()
	// No panic and no file created; nothing further to assert.
}
