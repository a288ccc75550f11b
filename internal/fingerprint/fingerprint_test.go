package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNormalizedHashIgnoresCommentsAndWhitespace(t *testing.T) {
	a := Extract("function   add(a,b) {\n  // sum them\n  return a+b;\n}", Options{})
	b := Extract("function add(a,b) { return a+b; }", Options{})
	assert.Equal(t, a.NormalizedHash, b.NormalizedHash)
}

func TestExtractContentHashDiffersOnWhitespaceChange(t *testing.T) {
	a := Extract("const x = 1;", Options{})
	b := Extract("const x = 1; ", Options{})
	assert.NotEqual(t, a.ContentHash, b.ContentHash)
}

func TestExtractSignatureSortedUniqueOverTwoChars(t *testing.T) {
	fp := Extract("function add(a,b){}\nfunction add(a,b){}\nconst ab = 1;\nconst x = 1;", Options{})
	assert.Equal(t, "add", fp.Signature)
}

func TestExtractContentLength(t *testing.T) {
	fp := Extract("abcde", Options{})
	assert.Equal(t, 5, fp.ContentLength)
}

func TestDescribeBundlesFingerprintAndFeatures(t *testing.T) {
	r := Describe(`const greeting = "hello world!"; f(1,2,3);`, "src/index.js", Options{})
	assert.Equal(t, "src/index.js", r.EntryPath)
	assert.NotEmpty(t, r.Signature)
	assert.Contains(t, r.Features.Strings, "hello world!")
	assert.Contains(t, r.Features.CallPatterns, "f:3")
}
