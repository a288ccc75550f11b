package orchestrate

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webrecon/recon/internal/cache"
	"github.com/webrecon/recon/internal/fetch"
	"github.com/webrecon/recon/internal/match"
	"github.com/webrecon/recon/internal/registry"
)

type routedFetcher struct {
	routes map[string]*fetch.Response
}

func (r *routedFetcher) Fetch(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	if resp, ok := r.routes[req.URL]; ok {
		return resp, nil
	}
	return fetch.NewResponse(true, 404, nil, nil), nil
}

func metadataDocFor(version string) []byte {
	return []byte(`{
		"dist-tags": {"latest": "` + version + `"},
		"versions": {"` + version + `": {"main": "index.js"}},
		"time": {"` + version + `": "2022-01-01T00:00:00.000Z"}
	}`)
}

func TestSearchMatchesIndependentPackages(t *testing.T) {
	routes := map[string]*fetch.Response{
		"https://registry.npmjs.org/pkg-a": fetch.NewResponse(true, 200, nil, metadataDocFor("1.0.0")),
		"https://registry.npmjs.org/pkg-b": fetch.NewResponse(true, 200, nil, metadataDocFor("2.0.0")),
	}
	mgr, err := cache.NewManager(cache.WithFS(afero.NewMemMapFs()), cache.WithRoot("/cache"))
	require.NoError(t, err)
	reg := registry.NewClient(&routedFetcher{routes: routes}, mgr)
	matcher := match.NewMatcher(reg, mgr)
	orch := NewOrchestrator(reg, matcher)

	var mu sync.Mutex
	var events []Event

	packages := []Package{
		{Name: "pkg-a", Files: []match.File{{Path: "src/index.js", Content: "var a = 1;"}}},
		{Name: "pkg-b", Files: []match.File{{Path: "src/index.js", Content: "var b = 2;"}}},
	}

	results, err := orch.Search(context.Background(), packages, Options{
		Progress: func(e Event) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Contains(t, results, "pkg-a")
	assert.Contains(t, results, "pkg-b")

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, events)
}

func TestSearchHandlesUnreachableRegistryWithoutAbortingOthers(t *testing.T) {
	routes := map[string]*fetch.Response{
		"https://registry.npmjs.org/pkg-good": fetch.NewResponse(true, 200, nil, metadataDocFor("1.0.0")),
	}
	mgr, err := cache.NewManager(cache.WithFS(afero.NewMemMapFs()), cache.WithRoot("/cache"))
	require.NoError(t, err)
	reg := registry.NewClient(&routedFetcher{routes: routes}, mgr)
	matcher := match.NewMatcher(reg, mgr)
	orch := NewOrchestrator(reg, matcher)

	packages := []Package{
		{Name: "pkg-good", Files: []match.File{{Path: "src/index.js", Content: "var a = 1;"}}},
		{Name: "pkg-missing", Files: []match.File{{Path: "src/index.js", Content: "var b = 2;"}}},
	}

	results, err := orch.Search(context.Background(), packages, Options{})
	require.NoError(t, err)
	assert.Contains(t, results, "pkg-good")
	assert.NotContains(t, results, "pkg-missing")
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultMetadataConcurrency, o.MetadataConcurrency)
	assert.Equal(t, DefaultPackageConcurrency, o.PackageConcurrency)
	assert.NotNil(t, o.Progress)
}
