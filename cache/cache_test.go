package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDeleteHas(t *testing.T) {
	m := NewMemory()
	assert.False(t, m.Has("k"))

	require.NoError(t, m.Set("k", []byte("v"), time.Minute))
	assert.True(t, m.Has("k"))
	v, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, m.Delete("k"))
	assert.False(t, m.Has("k"))
}

func TestMemoryExpiredEntryIsAbsent(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("k", []byte("v"), -time.Second))
	assert.False(t, m.Has("k"))
	_, ok := m.Get("k")
	assert.False(t, ok)
}

func TestMemoryClearRemovesEverything(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("a", []byte("1"), time.Minute))
	require.NoError(t, m.Set("b", []byte("2"), time.Minute))
	require.NoError(t, m.Clear())
	assert.False(t, m.Has("a"))
	assert.False(t, m.Has("b"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "cache"))

	require.NoError(t, f.Set("k", []byte("v"), time.Minute))
	assert.True(t, f.Has("k"))
	v, ok := f.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, f.Delete("k"))
	assert.False(t, f.Has("k"))
}

func TestFileStoreExpiredEntryIsAbsent(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, f.Set("k", []byte("v"), -time.Second))
	assert.False(t, f.Has("k"))
}

func TestFileStoreClearRemovesCacheFilesOnly(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(dir)
	require.NoError(t, f.Set("a", []byte("1"), time.Minute))
	require.NoError(t, f.Set("b", []byte("2"), time.Minute))
	keep := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))
	require.NoError(t, f.Clear())
	assert.False(t, f.Has("a"))
	assert.False(t, f.Has("b"))
	_, err := os.Stat(keep)
	assert.NoError(t, err)
}

func TestTaggedInvalidateTagRemovesOnlyTaggedKeys(t *testing.T) {
	tc := NewTagged(NewMemory())
	require.NoError(t, tc.Set("k1", []byte("v1"), []string{"users"}, time.Minute))
	require.NoError(t, tc.Set("k2", []byte("v2"), []string{"users", "orders"}, time.Minute))
	require.NoError(t, tc.Set("k3", []byte("v3"), []string{"orders"}, time.Minute))

	require.NoError(t, tc.InvalidateTag("users"))

	assert.False(t, tc.Has("k1"))
	assert.False(t, tc.Has("k2")) // tagged "orders" too, but "users" invalidation still removes it
	assert.True(t, tc.Has("k3"))
}

func TestTaggedDeleteCleansReverseIndex(t *testing.T) {
	tc := NewTagged(NewMemory())
	require.NoError(t, tc.Set("k1", []byte("v1"), []string{"users"}, time.Minute))
	require.NoError(t, tc.Delete("k1"))

	// re-adding the tag with a different key must not resurrect k1.
	require.NoError(t, tc.Set("k2", []byte("v2"), []string{"users"}, time.Minute))
	require.NoError(t, tc.InvalidateTag("users"))
	assert.False(t, tc.Has("k2"))
	assert.False(t, tc.Has("k1"))
}

func TestTaggedResetNarrowsTagMembership(t *testing.T) {
	tc := NewTagged(NewMemory())
	require.NoError(t, tc.Set("k1", []byte("v1"), []string{"users"}, time.Minute))
	// re-Set k1 with no tags: it should no longer be affected by invalidating "users".
	require.NoError(t, tc.Set("k1", []byte("v1b"), nil, time.Minute))
	require.NoError(t, tc.InvalidateTag("users"))
	assert.True(t, tc.Has("k1"))
}

func TestKeyForIsStableAndDistinguishesBindings(t *testing.T) {
	k1 := KeyFor("SELECT 1", []any{1, "a"})
	k2 := KeyFor("SELECT 1", []any{1, "a"})
	k3 := KeyFor("SELECT 1", []any{2, "a"})
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
