// Package discovery locates the source-map URL for a fetched bundle.
package discovery

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/webrecon/recon/internal/fetch"
)

// Strategy names the discovery technique that produced a Result.
type Strategy string

const (
	StrategyHeader  Strategy = "header"
	StrategyComment Strategy = "comment"
	StrategyProbe   Strategy = "probe"
)

// Result is the outcome of Discover: either a found URL with the
// strategy that found it, or Found=false — discovery never returns an
// error for "nothing there", only for a caller-supplied mistake.
type Result struct {
	Found    bool
	URL      string
	Strategy Strategy
}

// ErrNoSourceMapFound is the sentinel value a caller can compare a
// non-error, non-nil Result against; it is not itself returned by
// Discover (the soft-miss case is !Result.Found, not an error) but is
// exposed for callers layering their own error on top of a miss.
var ErrNoSourceMapFound = errors.New("no source map found")

// commentMarker is the text shared by both the JS (`//# sourceMappingURL=`)
// and CSS (`/*# sourceMappingURL=... */`) forms, searched from the end
// of the body since a valid comment is always the last non-whitespace
// content in a bundle.
const commentMarker = "sourceMappingURL="

// Discover attempts, in order, the header strategy, the trailing
// comment strategy, and the `.map` URL probe, returning the first
// strategy that yields a usable URL.
func Discover(ctx context.Context, f fetch.Fetcher, bundleURL string, resp *fetch.Response) (Result, error) {
	if u, ok := fromHeaders(resp); ok {
		resolved, err := resolveAgainst(bundleURL, u)
		if err != nil {
			return Result{}, err
		}
		return Result{Found: true, URL: resolved, Strategy: StrategyHeader}, nil
	}

	if u, ok := fromTrailingComment(resp.Text()); ok {
		resolved, err := resolveAgainst(bundleURL, u)
		if err != nil {
			return Result{}, err
		}
		return Result{Found: true, URL: resolved, Strategy: StrategyComment}, nil
	}

	if u, ok := probe(ctx, f, bundleURL); ok {
		return Result{Found: true, URL: u, Strategy: StrategyProbe}, nil
	}

	return Result{Found: false}, nil
}

func fromHeaders(resp *fetch.Response) (string, bool) {
	for _, name := range []string{"SourceMap", "X-SourceMap"} {
		if v, ok := lookupHeader(resp.Headers, name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func lookupHeader(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// fromTrailingComment searches for a sourceMappingURL comment starting
// from the end of body, since some bundlers append extraneous trailing
// whitespace or a semicolon after the canonical comment.
func fromTrailingComment(body string) (string, bool) {
	idx := strings.LastIndex(body, commentMarker)
	if idx < 0 {
		return "", false
	}

	rest := body[idx+len(commentMarker):]
	end := len(rest)
	for i, r := range rest {
		if r == '\n' || r == '\r' || (r == '*' && i+1 < len(rest) && rest[i+1] == '/') {
			end = i
			break
		}
	}
	u := strings.TrimSpace(rest[:end])
	u = strings.TrimSuffix(u, "*/")
	u = strings.TrimSpace(u)
	if u == "" {
		return "", false
	}
	return u, true
}

// probe appends ".map" to the bundle URL and attempts a GET; any
// non-error, Ok response with a non-error status under 400 counts as
// found.
func probe(ctx context.Context, f fetch.Fetcher, bundleURL string) (string, bool) {
	if f == nil {
		return "", false
	}
	candidate := bundleURL + ".map"
	resp, err := f.Fetch(ctx, fetch.Request{URL: candidate})
	if err != nil || !resp.Ok || resp.Status >= 400 {
		return "", false
	}
	return candidate, true
}

// resolveAgainst resolves a possibly-relative source-map reference
// against the bundle's own URL, exactly as a browser would resolve a
// relative sourceMappingURL comment.
func resolveAgainst(bundleURL, ref string) (string, error) {
	if strings.HasPrefix(ref, "data:") {
		return ref, nil
	}

	base, err := url.Parse(bundleURL)
	if err != nil {
		return "", errors.Wrap(err, "parsing bundle URL")
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrap(err, "parsing source map reference")
	}
	return base.ResolveReference(rel).String(), nil
}
