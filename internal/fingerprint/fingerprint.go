// Package fingerprint computes content-based identity features for a
// JavaScript or CSS source file, used to match a minified bundle
// against the npm package/version it was built from.
package fingerprint

import (
	"crypto/md5" //nolint:gosec // content-identity digest, not a security boundary.
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

// CommentStripper removes comments from content while respecting string
// and template literals, so whitespace-collapsing afterward never eats
// meaningful code. The real AST-aware version of this is an external
// collaborator (spec.md §1 names it out of scope as a full subsystem);
// DefaultCommentStripper is a best-effort character-scanning stand-in a caller
// can replace via WithCommentStripper.
type CommentStripper func(content string) string

// DeclarationNameExtractor returns every top-level declaration name
// (function, class, const/let/var) found in content. Like
// CommentStripper, the canonical implementation is AST-based and
// external; DefaultDeclarationNameExtractor is a regex approximation.
type DeclarationNameExtractor func(content string) []string

// Options configures Describe/Extract with the two externally-provided
// AST helpers, defaulting to the stand-ins in astdefaults.go.
type Options struct {
	StripComments   CommentStripper
	ExtractDeclNames DeclarationNameExtractor
}

func (o Options) withDefaults() Options {
	if o.StripComments == nil {
		o.StripComments = DefaultCommentStripper
	}
	if o.ExtractDeclNames == nil {
		o.ExtractDeclNames = DefaultDeclarationNameExtractor
	}
	return o
}

// Fingerprint is the extracted identity of a content buffer, per
// spec.md §4.7's "Extracted fingerprint" shape.
type Fingerprint struct {
	ContentHash    string
	NormalizedHash string
	Signature      string
	ContentLength  int
	Minified       bool
}

// FeatureSet is the minification-resistant feature set computed
// alongside a Fingerprint, kept separate since the matcher only needs
// it for the S2/S3 similarity formulas, not for identity comparisons.
type FeatureSet struct {
	Strings      []string
	CallPatterns []string
	Numbers      []string
}

// Report bundles a Fingerprint with its FeatureSet and entry path, the
// single value every matcher call site needs — see SPEC_FULL.md §4.15.
type Report struct {
	Fingerprint
	Features  FeatureSet
	EntryPath string
}

// Extract computes the Fingerprint for content per spec.md §4.7.
func Extract(content string, opts Options) Fingerprint {
	opts = opts.withDefaults()

	stripped := opts.StripComments(content)
	collapsed := collapseWhitespace(stripped)

	return Fingerprint{
		ContentHash:    md5Hex(content),
		NormalizedHash: md5Hex(collapsed),
		Signature:      signature(opts.ExtractDeclNames(content)),
		ContentLength:  len(content),
		Minified:       IsMinified(content),
	}
}

// Describe computes both the Fingerprint and the minification-resistant
// FeatureSet in one call, and tags the result with entryPath — the
// convenience bundle spec.md's matcher needs at every call site.
func Describe(content, entryPath string, opts Options) Report {
	return Report{
		Fingerprint: Extract(content, opts),
		Features:    ExtractFeatures(content),
		EntryPath:   entryPath,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// signature is the sorted, unique set of declaration names longer than
// two characters, joined with "|".
func signature(names []string) string {
	seen := make(map[string]struct{}, len(names))
	var kept []string
	for _, n := range names {
		if len(n) <= 2 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		kept = append(kept, n)
	}
	sort.Strings(kept)
	return strings.Join(kept, "|")
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
