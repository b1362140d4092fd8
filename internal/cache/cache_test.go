package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_StableAndNamespaced(t *testing.T) {
	a := Key("biomart", "http://mart", "<Query/>")
	b := Key("biomart", "http://mart", "<Query/>")
	c := Key("biomart", "http://mart", "<Query />")
	d := Key("robots", "http://mart", "<Query/>")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, "genediff:v1:biomart:")
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, found := c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	val, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := Key("biomart", "q")
	require.NoError(t, c.Set(key, []byte("payload"), 0))

	val, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, []byte("payload"), val)

	now = now.Add(2 * time.Hour)
	_, found = c.Get(key)
	assert.False(t, found)

	_, err := os.Stat(c.path(key))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed")
}

func TestDiskCache_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cache"), []byte("{not json"), 0o644))
	_, found := c.Get("bad")
	assert.False(t, found)
}

func TestDiskCache_DeleteMissingIsNoError(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	assert.NoError(t, c.Delete("absent"))
}

func TestDiskCache_KeysAreSanitized(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, c.Set("a:b/c", []byte("x"), 0))
	_, err := os.Stat(filepath.Join(dir, "a_b_c.cache"))
	assert.NoError(t, err)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	require.NoError(t, c.disk.Set("k", []byte("from-disk"), 0))

	_, inMemory := c.memory.Get("k")
	assert.False(t, inMemory)

	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("from-disk"), val)

	val, inMemory = c.memory.Get("k")
	assert.True(t, inMemory)
	assert.Equal(t, []byte("from-disk"), val)
}

func TestLayeredCache_SetWritesBothAndClear(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	_, inMemory := c.memory.Get("k")
	_, onDisk := c.disk.Get("k")
	assert.True(t, inMemory)
	assert.True(t, onDisk)

	require.NoError(t, c.Clear())
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set("k", []byte("v"), time.Minute))
	_, found := c.Get("k")
	assert.False(t, found)
}
