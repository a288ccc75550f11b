package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/webrecon/recon/internal/cache"
	"github.com/webrecon/recon/internal/fingerprint"
	"github.com/webrecon/recon/internal/registry"
)

// candidatePaths is the fixed suite of common entry paths tried when a
// version's manifest fields don't resolve, derived from the package
// base name per spec.md §4.8 step 1.
func candidatePaths(name string) []string {
	base := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		base = name[idx+1:]
	}
	return []string{
		"index.js",
		"dist/index.js",
		"lib/index.js",
		fmt.Sprintf("dist/%s.js", base),
		fmt.Sprintf("dist/%s.min.js", base),
		fmt.Sprintf("dist/%s.cjs.js", base),
		fmt.Sprintf("dist/%s.esm.js", base),
		fmt.Sprintf("dist/%s.umd.js", base),
	}
}

// entryCandidatesForVersion resolves entry-point candidates from a
// version's manifest fields, in preference order, then falls back to
// the fixed suite.
func entryCandidatesForVersion(name string, vm cache.VersionManifest) []string {
	var candidates []string
	if vm.Module != "" {
		candidates = append(candidates, vm.Module)
	}
	if vm.Main != "" {
		candidates = append(candidates, vm.Main)
	}
	if dot, ok := vm.Exports["."]; ok {
		candidates = append(candidates, exportsConditionPaths(dot)...)
	}
	candidates = append(candidates, candidatePaths(name)...)
	return candidates
}

// exportsConditionPaths flattens an exports["."] condition map/string
// into an ordered list of candidate paths.
func exportsConditionPaths(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case map[string]any:
		var out []string
		for _, key := range []string{"import", "require", "default", "node", "browser"} {
			if p, ok := val[key]; ok {
				out = append(out, exportsConditionPaths(p)...)
			}
		}
		return out
	default:
		return nil
	}
}

// Matcher ties the registry client, cache manager and fingerprint
// package together to run Match.
type Matcher struct {
	registry *registry.Client
	cache    *cache.Manager
}

// NewMatcher builds a Matcher.
func NewMatcher(reg *registry.Client, cacheMgr *cache.Manager) *Matcher {
	return &Matcher{registry: reg, cache: cacheMgr}
}

// Match attempts to identify the published version of name that files
// were extracted from.
func (m *Matcher) Match(ctx context.Context, name string, files []File, opts Options) (Result, error) {
	opts = opts.withDefaults()

	if len(files) == 0 {
		return Result{Confidence: ConfidenceUnverified}, nil
	}

	entry, _ := SelectEntryPoint(files)
	extractedFP := fingerprint.Extract(entry.Content, opts.FingerprintOptions)
	extractedFeatures := fingerprint.ExtractFeatures(entry.Content)

	multiFile := IsMultiFile(files)
	var extractedAggFeatures fingerprint.FeatureSet
	var extractedAggLen int
	if multiFile {
		aggContent := aggregateContent(files)
		extractedAggFeatures = fingerprint.ExtractFeatures(aggContent)
		extractedAggLen = len(aggContent)
	}

	meta, err := m.registry.GetMetadata(ctx, name)
	if err != nil {
		return Result{}, err
	}

	versions := OrderVersions(meta, opts.VersionHint, opts.IncludePrereleases, opts.MaxVersions)

	best := Result{Confidence: ConfidenceUnverified}
	probeCount := 0

	for batchStart := 0; batchStart < len(versions); batchStart += opts.VersionConcurrency {
		end := batchStart + opts.VersionConcurrency
		if end > len(versions) {
			end = len(versions)
		}
		batch := versions[batchStart:end]

		for _, version := range batch {
			probeCount++
			result, ok := m.probeVersion(ctx, name, version, meta, extractedFP, extractedFeatures, multiFile, extractedAggFeatures, extractedAggLen, opts)
			if !ok {
				continue
			}
			result.ProbeCount = probeCount

			if result.Similarity >= 0.99 {
				result.Matched = true
				result.Confidence = ConfidenceExact
				m.writeMatchCache(name, result)
				return result, nil
			}
			if result.Similarity > best.Similarity {
				best = result
			}
		}

		if best.Similarity >= 0.95 {
			break
		}
	}

	if best.Similarity < opts.MinSimilarity && multiFile {
		if structural, ok := m.structuralFallback(ctx, name, files, meta, opts); ok && structural.Similarity > best.Similarity {
			best = structural
		}
	}

	best.ProbeCount = probeCount
	best = applyConfidence(best, opts.MinSimilarity)
	m.writeMatchCache(name, best)
	return best, nil
}

func (m *Matcher) probeVersion(
	ctx context.Context,
	name, version string,
	meta cache.Metadata,
	extractedFP fingerprint.Fingerprint,
	extractedFeatures fingerprint.FeatureSet,
	multiFile bool,
	extractedAggFeatures fingerprint.FeatureSet,
	extractedAggLen int,
	opts Options,
) (Result, bool) {
	vm := meta.VersionManifest[version]
	candidates := entryCandidatesForVersion(name, vm)

	var candidateRecord cache.Fingerprint
	found := false
	for _, path := range candidates {
		rec, err := m.fingerprintFor(ctx, m.cache.Fingerprint, name, version, path, opts)
		if err != nil {
			continue
		}
		candidateRecord = rec
		found = true
		break
	}
	if !found {
		return Result{}, false
	}

	s1 := SimilarityS1(toFingerprint(candidateRecord), extractedFP)
	best := s1
	source := SourceFingerprint

	if extractedFP.Minified || s1 < 0.9 {
		minifiedPath := minifiedPathFor(candidateRecord.EntryPath)
		minRecord, err := m.fingerprintFor(ctx, m.cache.MinifiedFingerprint, name, version, minifiedPath, opts)
		if err == nil {
			s2 := weightedFeatureSimilarity(toFeatureSet(minRecord), extractedFeatures, minRecord.ContentLength, candidateRecord.ContentLength)
			if s2 > best {
				best = s2
				source = SourceFingerprintMinified
			}

			if multiFile && s2 < 0.8 {
				s3 := weightedFeatureSimilarity(toFeatureSet(minRecord), extractedAggFeatures, minRecord.ContentLength, extractedAggLen)
				if s3 > best {
					best = s3
					source = SourceFingerprintMinified
				}
			}
		}
	}

	return Result{
		Matched:    best >= 0.99,
		Version:    version,
		Similarity: best,
		Source:     source,
	}, true
}

// fingerprintFor fetches and fingerprints name@version/path through the
// given cache store, so repeated probes across packages sharing a
// dependency version never refetch the same content.
func (m *Matcher) fingerprintFor(ctx context.Context, store *cache.Store[cache.Fingerprint], name, version, path string, opts Options) (cache.Fingerprint, error) {
	key := name + "@" + version + "/" + path
	if rec, ok := store.Get(key); ok {
		return rec, nil
	}

	content, err := m.registry.FetchFile(ctx, name, version, path)
	if err != nil || content == "" {
		return cache.Fingerprint{}, fmt.Errorf("no content at %s", path)
	}

	fp := fingerprint.Extract(content, opts.FingerprintOptions)
	features := fingerprint.ExtractFeatures(content)
	rec := cache.Fingerprint{
		ContentHash:    fp.ContentHash,
		NormalizedHash: fp.NormalizedHash,
		Signature:      fp.Signature,
		ContentLength:  fp.ContentLength,
		Minified:       fp.Minified,
		EntryPath:      path,
		Strings:        features.Strings,
		CallPatterns:   features.CallPatterns,
		Numbers:        features.Numbers,
	}
	store.Set(key, rec)
	return rec, nil
}

func toFingerprint(rec cache.Fingerprint) fingerprint.Fingerprint {
	return fingerprint.Fingerprint{
		ContentHash:    rec.ContentHash,
		NormalizedHash: rec.NormalizedHash,
		Signature:      rec.Signature,
		ContentLength:  rec.ContentLength,
		Minified:       rec.Minified,
	}
}

func toFeatureSet(rec cache.Fingerprint) fingerprint.FeatureSet {
	return fingerprint.FeatureSet{
		Strings:      rec.Strings,
		CallPatterns: rec.CallPatterns,
		Numbers:      rec.Numbers,
	}
}

func minifiedPathFor(path string) string {
	if strings.HasSuffix(path, ".min.js") {
		return path
	}
	if strings.HasSuffix(path, ".js") {
		return strings.TrimSuffix(path, ".js") + ".min.js"
	}
	return path
}

func (m *Matcher) structuralFallback(ctx context.Context, name string, files []File, meta cache.Metadata, opts Options) (Result, bool) {
	extractedNames := make([]string, 0, len(files))
	for _, f := range files {
		extractedNames = append(extractedNames, f.Path)
	}

	versions := OrderVersions(meta, opts.VersionHint, opts.IncludePrereleases, opts.MaxVersions)

	best := Result{Source: SourceStructural}
	for _, version := range versions {
		regFiles, err := m.registry.FileList(ctx, name, version)
		if err != nil {
			continue
		}
		score := StructuralSimilarity(extractedNames, regFiles)
		if score > best.Similarity {
			best = Result{Version: version, Similarity: score, Source: SourceStructural}
		}
		if score >= structuralShortCircuit {
			break
		}
	}

	if best.Similarity < structuralThreshold {
		return Result{}, false
	}
	return best, true
}

// applyConfidence maps a non-exact final best similarity to a
// confidence label, per spec.md §4.8's confidence mapping.
func applyConfidence(r Result, minSimilarity float64) Result {
	switch {
	case r.Similarity >= 0.99:
		r.Matched = true
		r.Confidence = ConfidenceExact
	case r.Similarity >= 0.90:
		r.Matched = true
		r.Confidence = ConfidenceHigh
	case r.Similarity >= 0.80:
		r.Matched = true
		r.Confidence = ConfidenceMedium
	case r.Similarity >= minSimilarity:
		r.Matched = true
		r.Confidence = ConfidenceLow
	default:
		r.Matched = false
		r.Confidence = ConfidenceUnverified
	}
	return r
}

// writeMatchCache writes the positive or negative match cache entry,
// per spec.md §8's "negative-cache entry is written iff best similarity
// < minimum threshold" invariant.
func (m *Matcher) writeMatchCache(name string, r Result) {
	m.cache.Match.Set(name, cache.MatchRecord{
		Matched:    r.Matched,
		Version:    r.Version,
		Similarity: r.Similarity,
		Confidence: string(r.Confidence),
	})
}
