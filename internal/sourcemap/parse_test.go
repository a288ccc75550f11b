package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegularMapSingleSourceTrivialMapping(t *testing.T) {
	data := []byte(`{"version":3,"sources":["a.ts"],"sourcesContent":["x"],"mappings":"AAAA"}`)
	m, res, err := Parse(data, "")
	require.NoError(t, err)
	require.NotNil(t, m.Regular)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)

	require.Len(t, m.Regular.Sources, 1)
	require.NotNil(t, m.Regular.Sources[0])
	assert.Equal(t, "a.ts", *m.Regular.Sources[0])
	require.Len(t, m.Regular.SourcesContent, 1)
	require.NotNil(t, m.Regular.SourcesContent[0])
	assert.Equal(t, "x", *m.Regular.SourcesContent[0])
}

func TestParseMappingsEmptySegment(t *testing.T) {
	data := []byte(`{"version":3,"sources":["a.ts"],"mappings":"AAAA,,"}`)
	m, res, err := Parse(data, "")
	require.NoError(t, err)
	require.NotNil(t, m.Regular)
	assert.False(t, res.Valid)

	var found bool
	for _, e := range res.Errors {
		if e.Code == InvalidMappingSegment {
			assert.Contains(t, e.Message, "empty segment")
			found = true
		}
	}
	assert.True(t, found, "expected an INVALID_MAPPING_SEGMENT error")
}

func TestParseMappingsSourceIndexOutOfBounds(t *testing.T) {
	// "AAAA" is a valid zero-delta segment on line 1; "ACAA" on line 2
	// increments the source-index accumulator by 1 (field[1] = 'C' = +1),
	// which is out of bounds for a single-entry sources array.
	data := []byte(`{"version":3,"sources":["a.ts"],"mappings":"AAAA;ACAA"}`)
	m, res, err := Parse(data, "")
	require.NoError(t, err)
	require.NotNil(t, m.Regular)
	assert.False(t, res.Valid)

	var found bool
	for _, e := range res.Errors {
		if e.Code == MappingSourceIndexOutOfBounds {
			found = true
		}
	}
	assert.True(t, found, "expected a MAPPING_SOURCE_INDEX_OUT_OF_BOUNDS error")
}

func TestParseIndexMapOverlap(t *testing.T) {
	data := []byte(`{
		"version": 3,
		"sections": [
			{"offset": {"line": 0, "column": 0}, "map": {"version":3,"sources":["a.ts"],"mappings":"AAAA"}},
			{"offset": {"line": 0, "column": 0}, "map": {"version":3,"sources":["b.ts"],"mappings":"AAAA"}}
		]
	}`)
	m, res, err := Parse(data, "")
	require.NoError(t, err)
	require.NotNil(t, m.Index)
	assert.False(t, res.Valid)

	var found bool
	for _, e := range res.Errors {
		if e.Code == IndexMapOverlap {
			found = true
		}
	}
	assert.True(t, found, "expected an INDEX_MAP_OVERLAP error")
}

func TestParseIndexMapNestedDoesNotLeakInnerErrors(t *testing.T) {
	// The nested section's "map" is itself an index map, which is
	// forbidden. No separate error set from validating that nested
	// object as a regular map should appear — only INDEX_MAP_NESTED.
	data := []byte(`{
		"version": 3,
		"sections": [
			{"offset": {"line": 0, "column": 0}, "map": {"version":3,"sections":[]}}
		]
	}`)
	_, res, err := Parse(data, "")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	var nestedCount int
	for _, e := range res.Errors {
		if e.Code == IndexMapNested {
			nestedCount++
		}
		assert.NotEqual(t, MissingSources, e.Code, "inner regular-map validation must not leak out")
		assert.NotEqual(t, MissingMappings, e.Code, "inner regular-map validation must not leak out")
	}
	assert.Equal(t, 1, nestedCount)
}

func TestParseIndexMapWithMappingsInvalid(t *testing.T) {
	data := []byte(`{"version":3,"sections":[],"mappings":"AAAA"}`)
	_, res, err := Parse(data, "")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	var found bool
	for _, e := range res.Errors {
		if e.Code == IndexMapWithMappings {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseInvalidJSONIsFatal(t *testing.T) {
	_, _, err := Parse([]byte(`not json`), "https://example.com/app.js.map")
	require.Error(t, err)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, InvalidJSON, fatal.Code)
	assert.Equal(t, "https://example.com/app.js.map", fatal.URL)
}

func TestParseDataURIBase64(t *testing.T) {
	// {"version":3,"sources":["a.ts"],"mappings":"AAAA"} base64-encoded.
	const uri = "data:application/json;base64,eyJ2ZXJzaW9uIjozLCJzb3VyY2VzIjpbImEudHMiXSwibWFwcGluZ3MiOiJBQUFBIn0="
	m, res, err := ParseDataURI(uri, "")
	require.NoError(t, err)
	require.NotNil(t, m.Regular)
	assert.True(t, res.Valid)
}

func TestParseAutoDispatch(t *testing.T) {
	m, res, err := ParseAuto([]byte(`{"version":3,"sources":["a.ts"],"mappings":"AAAA"}`), "")
	require.NoError(t, err)
	require.NotNil(t, m.Regular)
	assert.True(t, res.Valid)
}

func TestParseSourcesContentLengthMismatchWarns(t *testing.T) {
	data := []byte(`{"version":3,"sources":["a.ts","b.ts"],"sourcesContent":["x"],"mappings":"AAAA"}`)
	m, res, err := Parse(data, "")
	require.NoError(t, err)
	require.NotNil(t, m.Regular)
	assert.True(t, res.Valid, "length mismatch is a warning, not an error")
	assert.NotEmpty(t, res.Warnings)
}

func TestParseIgnoreListOutOfBounds(t *testing.T) {
	data := []byte(`{"version":3,"sources":["a.ts"],"mappings":"AAAA","ignoreList":[5]}`)
	_, res, err := Parse(data, "")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	var found bool
	for _, e := range res.Errors {
		if e.Code == InvalidIgnoreList {
			found = true
		}
	}
	assert.True(t, found)
}
