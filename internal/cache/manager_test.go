package cache

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	fs := afero.NewMemMapFs()
	m, err := NewManager(WithFS(fs), WithRoot("/cache"))
	require.NoError(t, err)
	return m
}

func TestManagerInitCreatesAllNamespaceDirectories(t *testing.T) {
	m := newTestManager(t)
	for _, ns := range []string{
		NSMetadata, NSFingerprint, NSMinifiedFingerprint, NSMatch, NSSourceMap,
		NSExtraction, NSPage, NSDiscovery, NSAnalysis, NSManifest, NSFileList,
		NSRegistryExistence, NSRegistryVersion,
	} {
		exists, err := afero.DirExists(m.fs, "/cache/"+ns)
		require.NoError(t, err)
		assert.True(t, exists, "namespace %q directory should exist", ns)
	}
}

func TestManagerStatsCountsEntriesAndBytes(t *testing.T) {
	m := newTestManager(t)
	m.Metadata.Set("left-pad", Metadata{Versions: []string{"1.0.0"}})
	m.Fingerprint.Set("left-pad@1.0.0", Fingerprint{ContentHash: "abc"})
	m.MinifiedFingerprint.Set("left-pad@1.0.0", Fingerprint{ContentHash: "def"})

	stats := m.Stats()
	assert.Equal(t, 1, stats.MetadataEntries)
	assert.Equal(t, 2, stats.FingerprintEntries)
	assert.Greater(t, stats.TotalBytes, int64(0))
}

func TestManagerClearRemovesEverything(t *testing.T) {
	m := newTestManager(t)
	m.Metadata.Set("pkg", Metadata{Versions: []string{"1.0.0"}})

	require.NoError(t, m.Clear())

	_, ok := m.Metadata.Get("pkg")
	assert.False(t, ok)
}

func TestManagerDisabledModeAppliesToAllNamespaces(t *testing.T) {
	fs := afero.NewMemMapFs()
	m, err := NewManager(WithFS(fs), WithRoot("/cache"), WithManagerDisabled(true))
	require.NoError(t, err)

	m.RegistryExistence.Set("left-pad", true)
	_, ok := m.RegistryExistence.Get("left-pad")
	assert.False(t, ok)
}
