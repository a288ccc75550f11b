// Package extract turns a validated source map into extracted source
// records and, optionally, reconstructs them as a tree on disk.
package extract

import (
	"github.com/pkg/errors"

	"github.com/webrecon/recon/internal/pathutil"
	"github.com/webrecon/recon/internal/sourcemap"
)

// Source is one extracted entry: its normalized path, its raw content,
// and the original (pre-normalization) sources[] entry it came from.
type Source struct {
	Path         string
	Content      string
	OriginalPath string
}

// Metadata counts what Extract did across the whole sources array.
type Metadata struct {
	Total     int
	Extracted int
	Skipped   int
	Null      int
}

// errNoExtractableSources is returned (wrapped with file context by
// callers that have one) when a map carries no sourcesContent at all.
var errNoExtractableSources = errors.New("source map has no extractable sources")

// ErrNoExtractableSources is the sentinel a caller can compare against
// with errors.Is to detect the "nothing to extract" case.
var ErrNoExtractableSources = errNoExtractableSources

// Options configures Extract.
type Options struct {
	// Filter decides which normalized paths are kept; nil means
	// everything passes.
	Filter *pathutil.Filter
	// OnSource, if set, is invoked once per extracted Source as it is
	// produced, before Extract returns its full slice. Used by callers
	// that want to start reconstruction without waiting for the whole
	// map to be walked.
	OnSource func(Source)
}

// Extract walks a parsed regular map's sources/sourcesContent arrays and
// produces the extractable sources plus run metadata. A map with no
// sourcesContent at all is reported via ErrNoExtractableSources rather
// than an empty, successful result, since that distinction matters to
// callers deciding whether a bundle is worth reconstructing at all.
func Extract(m *sourcemap.RegularMap, opts Options) ([]Source, Metadata, error) {
	meta := Metadata{Total: len(m.Sources)}

	if len(m.SourcesContent) == 0 {
		return nil, meta, errors.WithStack(errNoExtractableSources)
	}

	var out []Source
	for i, srcPtr := range m.Sources {
		if srcPtr == nil {
			meta.Skipped++
			continue
		}
		if i >= len(m.SourcesContent) || m.SourcesContent[i] == nil {
			meta.Null++
			continue
		}

		normalized, ok := pathutil.Normalize(*srcPtr, m.SourceRoot)
		if !ok {
			meta.Skipped++
			continue
		}

		if opts.Filter != nil && !opts.Filter.Include(normalized) {
			meta.Skipped++
			continue
		}

		src := Source{
			Path:         normalized,
			Content:      *m.SourcesContent[i],
			OriginalPath: *srcPtr,
		}
		out = append(out, src)
		meta.Extracted++

		if opts.OnSource != nil {
			opts.OnSource(src)
		}
	}

	return out, meta, nil
}
