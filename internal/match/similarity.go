package match

import (
	"github.com/webrecon/recon/internal/fingerprint"
)

// jaccard computes the Jaccard index of two string sets. It is 0 when
// either set is empty, including when both are.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func signatureSet(sig string) map[string]struct{} {
	if sig == "" {
		return map[string]struct{}{}
	}
	names := make(map[string]struct{})
	start := 0
	for i := 0; i <= len(sig); i++ {
		if i == len(sig) || sig[i] == '|' {
			if i > start {
				names[sig[start:i]] = struct{}{}
			}
			start = i + 1
		}
	}
	return names
}

// SimilarityS1 compares a candidate fingerprint against the extracted
// one, per spec.md §4.8 step 3.
func SimilarityS1(candidate, extracted fingerprint.Fingerprint) float64 {
	if candidate.NormalizedHash == extracted.NormalizedHash {
		return 1.00
	}
	if candidate.ContentHash == extracted.ContentHash {
		return 0.99
	}

	sigJaccard := jaccard(signatureSet(candidate.Signature), signatureSet(extracted.Signature))
	if sigJaccard >= 0.8 {
		return scale(sigJaccard, 0.8, 1.0, 0.85, 0.95)
	}
	if sigJaccard >= 0.5 {
		return scale(sigJaccard, 0.5, 0.8, 0.70, 0.85)
	}

	ratio := lengthRatio(candidate.ContentLength, extracted.ContentLength)
	if ratio < 0.10 {
		return ratio * 0.3
	}
	return ratio * 0.5
}

// scale linearly maps x from [inLo, inHi] to [outLo, outHi].
func scale(x, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	t := (x - inLo) / (inHi - inLo)
	return outLo + t*(outHi-outLo)
}

func lengthRatio(a, b int) float64 {
	if a == 0 && b == 0 {
		return 1.0
	}
	if a == 0 || b == 0 {
		return 0.0
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return float64(lo) / float64(hi)
}

// weightedFeatureSimilarity is the common S2/S3 formula: weighted
// Jaccard over strings (0.35), call patterns (0.35), numbers (0.15),
// length ratio (0.15), plus a +0.10 bonus when strings and calls both
// exceed 0.5, clamped at 1.0.
func weightedFeatureSimilarity(a, b fingerprint.FeatureSet, lenA, lenB int) float64 {
	strJ := jaccard(toSet(a.Strings), toSet(b.Strings))
	callJ := jaccard(toSet(a.CallPatterns), toSet(b.CallPatterns))
	numJ := jaccard(toSet(a.Numbers), toSet(b.Numbers))
	ratio := lengthRatio(lenA, lenB)

	score := strJ*0.35 + callJ*0.35 + numJ*0.15 + ratio*0.15
	if strJ > 0.5 && callJ > 0.5 {
		score += 0.10
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// SimilarityS2 compares minified feature sets directly.
func SimilarityS2(candidate, extracted fingerprint.Report) float64 {
	return weightedFeatureSimilarity(candidate.Features, extracted.Features, candidate.Fingerprint.ContentLength, extracted.Fingerprint.ContentLength)
}

// SimilarityS3 is SimilarityS2's formula applied to aggregated
// multi-file feature sets.
func SimilarityS3(candidateAgg, extractedAgg fingerprint.FeatureSet, candidateLen, extractedLen int) float64 {
	return weightedFeatureSimilarity(candidateAgg, extractedAgg, candidateLen, extractedLen)
}
