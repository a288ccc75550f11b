package match

import "strings"

const (
	structuralThreshold    = 0.5
	structuralShortCircuit = 0.95
)

// isInternalName reports whether a package-relative filename is
// conventionally internal, by spec.md §4.8's "starts with _" rule.
func isInternalName(name string) bool {
	base := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		base = name[idx+1:]
	}
	return strings.HasPrefix(base, "_")
}

func splitPublicInternal(names []string) (public, internal map[string]struct{}) {
	public = make(map[string]struct{})
	internal = make(map[string]struct{})
	for _, n := range names {
		if isInternalName(n) {
			internal[n] = struct{}{}
		} else {
			public[n] = struct{}{}
		}
	}
	return public, internal
}

// StructuralSimilarity computes the weighted-Jaccard filename-based
// fallback score between an extracted file set and a candidate
// version's published file list, per spec.md §4.8's structural
// fallback formula.
func StructuralSimilarity(extracted, registryFiles []string) float64 {
	extPublic, extInternal := splitPublicInternal(extracted)
	regPublic, regInternal := splitPublicInternal(registryFiles)

	publicJ := jaccard(extPublic, regPublic)
	internalJ := jaccard(extInternal, regInternal)

	score := publicJ*0.6 + internalJ*0.4

	if publicJ > 0.5 && internalJ > 0.5 {
		score += 0.10
	}

	if subsetRatio(extracted, registryFiles) >= 0.70 {
		score += 0.15
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// subsetRatio is the fraction of extracted names that also appear in
// registryFiles.
func subsetRatio(extracted, registryFiles []string) float64 {
	if len(extracted) == 0 {
		return 0
	}
	regSet := toSet(registryFiles)
	matched := 0
	for _, n := range extracted {
		if _, ok := regSet[n]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(extracted))
}
