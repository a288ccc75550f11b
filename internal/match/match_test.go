package match

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webrecon/recon/internal/cache"
	"github.com/webrecon/recon/internal/fetch"
	"github.com/webrecon/recon/internal/fingerprint"
	"github.com/webrecon/recon/internal/registry"
)

type stubFetcher struct {
	routes map[string]*fetch.Response
}

func (s *stubFetcher) Fetch(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	if resp, ok := s.routes[req.URL]; ok {
		return resp, nil
	}
	return fetch.NewResponse(true, 404, nil, nil), nil
}

func newTestMatcher(t *testing.T, routes map[string]*fetch.Response) (*Matcher, *cache.Manager) {
	t.Helper()
	mgr, err := cache.NewManager(cache.WithFS(afero.NewMemMapFs()), cache.WithRoot("/cache"))
	require.NoError(t, err)
	reg := registry.NewClient(&stubFetcher{routes: routes}, mgr)
	return NewMatcher(reg, mgr), mgr
}

const metadataDocSingleVersion = `{
	"dist-tags": {"latest": "3.2.1"},
	"versions": {
		"3.2.1": {"main": "index.js"}
	},
	"time": {
		"3.2.1": "2022-01-01T00:00:00.000Z"
	}
}`

func TestMatchExactExitOnNormalizedHash(t *testing.T) {
	entryContent := "function foo() { return 1; }"
	extractedFP := fingerprint.Extract(entryContent, fingerprint.Options{})

	m, mgr := newTestMatcher(t, map[string]*fetch.Response{
		"https://registry.npmjs.org/leftish": fetch.NewResponse(true, 200, nil, []byte(metadataDocSingleVersion)),
	})

	mgr.Fingerprint.Set("leftish@3.2.1/index.js", cache.Fingerprint{
		NormalizedHash: extractedFP.NormalizedHash,
		ContentHash:    "unrelated-hash",
		ContentLength:  123,
		EntryPath:      "index.js",
	})

	files := []File{{Path: "src/index.js", Content: entryContent}}

	result, err := m.Match(context.Background(), "leftish", files, Options{})
	require.NoError(t, err)

	assert.Equal(t, ConfidenceExact, result.Confidence)
	assert.Equal(t, SourceFingerprint, result.Source)
	assert.Equal(t, "3.2.1", result.Version)
	assert.Equal(t, 1.0, result.Similarity)
	assert.Equal(t, 1, result.ProbeCount)
	assert.True(t, result.Matched)

	cached, ok := mgr.Match.Get("leftish")
	require.True(t, ok)
	assert.True(t, cached.Matched)
	assert.Equal(t, "3.2.1", cached.Version)
}

func TestMatchNoCandidateVersionsResolves(t *testing.T) {
	m, mgr := newTestMatcher(t, map[string]*fetch.Response{
		"https://registry.npmjs.org/ghost-pkg": fetch.NewResponse(true, 200, nil, []byte(`{"dist-tags":{},"versions":{},"time":{}}`)),
	})
	_ = mgr

	files := []File{{Path: "src/index.js", Content: "var x = 1;"}}
	result, err := m.Match(context.Background(), "ghost-pkg", files, Options{})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, ConfidenceUnverified, result.Confidence)
}

func TestMatchEmptyFileSetReturnsUnverified(t *testing.T) {
	m, _ := newTestMatcher(t, nil)
	result, err := m.Match(context.Background(), "whatever", nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceUnverified, result.Confidence)
	assert.False(t, result.Matched)
}

func TestEntryCandidatesForVersionPrefersModuleThenMain(t *testing.T) {
	vm := cache.VersionManifest{Module: "dist/index.mjs", Main: "index.js"}
	candidates := entryCandidatesForVersion("pkg", vm)
	require.True(t, len(candidates) >= 2)
	assert.Equal(t, "dist/index.mjs", candidates[0])
	assert.Equal(t, "index.js", candidates[1])
}

func TestEntryCandidatesForVersionFallsBackToFixedSuite(t *testing.T) {
	vm := cache.VersionManifest{}
	candidates := entryCandidatesForVersion("mypkg", vm)
	assert.Contains(t, candidates, "dist/mypkg.min.js")
}

func TestMinifiedPathFor(t *testing.T) {
	assert.Equal(t, "dist/foo.min.js", minifiedPathFor("dist/foo.js"))
	assert.Equal(t, "dist/foo.min.js", minifiedPathFor("dist/foo.min.js"))
	assert.Equal(t, "dist/foo.mjs", minifiedPathFor("dist/foo.mjs"))
}
