package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webrecon/recon/internal/pathutil"
	"github.com/webrecon/recon/internal/sourcemap"
)

func strPtr(s string) *string { return &s }

func TestExtractNoSourcesContentIsError(t *testing.T) {
	m := &sourcemap.RegularMap{Sources: []*string{strPtr("a.ts")}}
	sources, meta, err := Extract(m, Options{})
	assert.ErrorIs(t, err, ErrNoExtractableSources)
	assert.Nil(t, sources)
	assert.Equal(t, 1, meta.Total)
}

func TestExtractSkipsNullEntries(t *testing.T) {
	m := &sourcemap.RegularMap{
		Sources:        []*string{nil, strPtr("b.ts")},
		SourcesContent: []*string{nil, nil},
	}
	sources, meta, err := Extract(m, Options{})
	require.NoError(t, err)
	assert.Empty(t, sources)
	assert.Equal(t, 1, meta.Skipped)
	assert.Equal(t, 1, meta.Null)
}

func TestExtractNormalizesAndEmits(t *testing.T) {
	m := &sourcemap.RegularMap{
		Sources:        []*string{strPtr("webpack:///./src/a.ts")},
		SourcesContent: []*string{strPtr("export const a = 1;")},
	}
	sources, meta, err := Extract(m, Options{})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "src/a.ts", sources[0].Path)
	assert.Equal(t, "export const a = 1;", sources[0].Content)
	assert.Equal(t, "webpack:///./src/a.ts", sources[0].OriginalPath)
	assert.Equal(t, 1, meta.Extracted)
}

func TestExtractAppliesFilter(t *testing.T) {
	m := &sourcemap.RegularMap{
		Sources: []*string{
			strPtr("webpack:///./src/a.ts"),
			strPtr("webpack:///./src/a.test.ts"),
		},
		SourcesContent: []*string{strPtr("x"), strPtr("y")},
	}
	f := pathutil.NewFilter([]string{`\.test\.ts$`})
	sources, meta, err := Extract(m, Options{Filter: f})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "src/a.ts", sources[0].Path)
	assert.Equal(t, 1, meta.Skipped)
}

func TestExtractStreamingCallback(t *testing.T) {
	m := &sourcemap.RegularMap{
		Sources:        []*string{strPtr("a.ts"), strPtr("b.ts")},
		SourcesContent: []*string{strPtr("1"), strPtr("2")},
	}
	var seen []string
	_, _, err := Extract(m, Options{OnSource: func(s Source) {
		seen = append(seen, s.Path)
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "b.ts"}, seen)
}

func TestExtractNodeModulesAlwaysIncluded(t *testing.T) {
	m := &sourcemap.RegularMap{
		Sources:        []*string{strPtr("node_modules/left-pad/index.js")},
		SourcesContent: []*string{strPtr("module.exports = leftPad")},
	}
	f := pathutil.NewFilter([]string{`node_modules`})
	sources, _, err := Extract(m, Options{Filter: f})
	require.NoError(t, err)
	require.Len(t, sources, 1)
}
