package cache

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFreshnessBoundary(t *testing.T) {
	// Scenario: TTL 1000ms, write at t=0, read at t=999 hits, read at
	// t=1001 misses and deletes the on-disk file.
	fs := afero.NewMemMapFs()
	clock := int64(0)
	s := NewStore[string](fs, "/cache", "fingerprint", 1000*time.Millisecond,
		WithClock[string](func() int64 { return clock }))

	s.Set("key", "value")

	clock = 999
	v, ok := s.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	clock = 1001
	_, ok = s.Get("key")
	assert.False(t, ok)

	exists, _ := afero.Exists(fs, "/cache/fingerprint/key")
	assert.False(t, exists)
}

func TestStoreMemoryHitAvoidsDiskRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	clock := int64(0)
	s := NewStore[string](fs, "/cache", "ns", time.Hour,
		WithClock[string](func() int64 { return clock }))

	s.Set("key", "value")
	require.NoError(t, fs.Remove("/cache/ns/key"))

	v, ok := s.Get("key")
	require.True(t, ok, "memory tier should still serve the entry")
	assert.Equal(t, "value", v)
}

func TestStoreDiskRepopulatesMemoryOnHit(t *testing.T) {
	fs := afero.NewMemMapFs()
	s1 := NewStore[string](fs, "/cache", "ns", time.Hour)
	s1.Set("key", "value")

	// A second store instance over the same fs+root simulates a second
	// process reading what the first wrote.
	s2 := NewStore[string](fs, "/cache", "ns", time.Hour)
	v, ok := s2.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestStoreDisabledModeAlwaysMisses(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore[string](fs, "/cache", "ns", time.Hour, WithDisabled[string](true))

	s.Set("key", "value")
	_, ok := s.Get("key")
	assert.False(t, ok)

	exists, _ := afero.DirExists(fs, "/cache/ns")
	assert.False(t, exists, "disabled store must not touch disk")
}

func TestStoreClearReinitializesNamespace(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore[string](fs, "/cache", "ns", time.Hour)
	s.Set("key", "value")

	require.NoError(t, s.Clear())

	_, ok := s.Get("key")
	assert.False(t, ok)
	exists, _ := afero.DirExists(fs, "/cache/ns")
	assert.True(t, exists, "Clear reinitializes the namespace directory")
}

func TestStoreCountAndDiskUsage(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore[string](fs, "/cache", "ns", time.Hour)
	s.Set("a", "value-a")
	s.Set("b", "value-b")

	assert.Equal(t, 2, s.Count())
	assert.Greater(t, s.DiskUsageBytes(), int64(0))
}
