package extract

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructWritesFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewReconstructor(WithFS(fs))

	results, err := r.Reconstruct("/out", "app.bundle.js", []Source{
		{Path: "src/a.ts", Content: "const a = 1;"},
		{Path: "src/nested/b.ts", Content: "const b = 2;"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.NoError(t, res.Err)
		assert.True(t, res.Written)
		assert.False(t, res.Unchanged)
	}

	content, err := afero.ReadFile(fs, "/out/app.bundle.js/src/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;", string(content))
}

func TestReconstructSkipsUnchangedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewReconstructor(WithFS(fs))

	sources := []Source{{Path: "a.ts", Content: "same"}}
	_, err := r.Reconstruct("/out", "bundle", sources)
	require.NoError(t, err)

	results, err := r.Reconstruct("/out", "bundle", sources)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Unchanged)
	assert.False(t, results[0].Written)
}

func TestReconstructRewritesChangedContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewReconstructor(WithFS(fs))

	_, err := r.Reconstruct("/out", "bundle", []Source{{Path: "a.ts", Content: "v1"}})
	require.NoError(t, err)

	results, err := r.Reconstruct("/out", "bundle", []Source{{Path: "a.ts", Content: "v2-longer"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Written)

	content, err := afero.ReadFile(fs, "/out/bundle/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "v2-longer", string(content))
}

func TestReconstructRejectsPathEscape(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewReconstructor(WithFS(fs))

	results, err := r.Reconstruct("/out", "bundle", []Source{
		{Path: "../../etc/passwd", Content: "evil"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, errPathEscapesRoot)
}
