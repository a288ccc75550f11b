// Package pathutil normalizes source-map "sources" entries into safe,
// relative POSIX paths and applies include/exclude filtering rules.
package pathutil

import (
	"path"
	"regexp"
	"strings"
)

// schemePrefixes are stripped, in order, from the front of a source path
// before the rest of normalization runs. Longer/more specific prefixes are
// listed first so they win over a shorter generic match.
var schemePrefixes = []string{
	"webpack:///./",
	"webpack:///",
	"webpack://",
	"vite:",
	"ng:",
}

// reservedChars are replaced with "_" anywhere they appear in a
// normalized path.
var reservedChars = regexp.MustCompile(`[<>:"|?*]`)

// Normalize resolves a raw "sources" entry into a sanitized, relative
// POSIX path. It strips scheme-like prefixes, drops any query/fragment,
// collapses "." segments, resolves ".." segments without ever ascending
// above the conceptual root, replaces reserved characters, rejects null
// bytes, and returns ("", false) for an empty result.
//
// sourceRoot, if non-empty, is joined in front of p before the rest of
// normalization runs, matching how a source map's sourceRoot field is
// meant to be combined with each sources[i] entry.
func Normalize(p string, sourceRoot string) (string, bool) {
	if strings.IndexByte(p, 0) >= 0 {
		return "", false
	}

	if sourceRoot != "" {
		p = strings.TrimSuffix(sourceRoot, "/") + "/" + p
	}

	for _, prefix := range schemePrefixes {
		if strings.HasPrefix(p, prefix) {
			p = p[len(prefix):]
			break
		}
	}

	// Drop query string and fragment.
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	p = strings.ReplaceAll(p, "\\", "/")
	p = sanitizeSegments(p)
	if p == "" {
		return "", false
	}

	p = reservedChars.ReplaceAllString(p, "_")

	return p, true
}

// sanitizeSegments collapses "." segments and resolves ".." segments
// without ever letting the result ascend above the root, then rejoins
// the remaining segments as a relative POSIX path.
func sanitizeSegments(p string) string {
	p = strings.TrimPrefix(p, "/")
	parts := strings.Split(p, "/")

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			// Leading ".." segments (nothing to pop) are discarded,
			// never allowed to escape the root.
		default:
			out = append(out, part)
		}
	}

	return path.Join(out...)
}

// Sanitize re-applies Normalize's guarantees to an already-normalized (or
// externally supplied) relative path, so that Sanitize is idempotent:
// Sanitize(Sanitize(p)) == Sanitize(p).
func Sanitize(p string) (string, bool) {
	return Normalize(p, "")
}

// BundleName derives an on-disk bundle name from a bundle URL: the final
// path segment without its extension, combined with the top-level
// directory segment of the path when one is present.
//
//	https://cdn.example.com/a/b/chunk-xyz.js -> a/chunk-xyz
//	https://cdn.example.com/chunk.js         -> chunk
//
// Query strings, fragments, and a trailing slash are ignored. Reserved
// filesystem characters in either segment are replaced with "_".
func BundleName(rawURL string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
		// Drop the host segment that follows the scheme.
		if j := strings.IndexByte(p, '/'); j >= 0 {
			p = p[j+1:]
		} else {
			p = ""
		}
	}
	p = strings.TrimSuffix(p, "/")

	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return "bundle"
	}

	last := segments[len(segments)-1]
	base := strings.TrimSuffix(last, path.Ext(last))
	base = reservedChars.ReplaceAllString(base, "_")
	if base == "" {
		base = "bundle"
	}

	if len(segments) < 2 {
		return base
	}

	top := reservedChars.ReplaceAllString(segments[0], "_")
	if top == "" {
		return base
	}

	return top + "/" + base
}
