package match

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/webrecon/recon/internal/cache"
)

// weightedDistance scores a version's distance from a hint, ignoring
// pre-release, per spec.md §4.8's major·10^6+minor·10^3+patch formula.
func weightedDistance(v *semver.Version) int64 {
	return int64(v.Major())*1_000_000 + int64(v.Minor())*1_000 + int64(v.Patch())
}

// OrderVersions returns the candidate versions to probe, in search
// order: dist-tagged versions first (deduplicated), then remaining
// versions spiraling outward from hint by weighted distance, then any
// still-remaining versions by descending publish time. Pre-release
// versions are dropped unless includePrereleases is set.
func OrderVersions(meta cache.Metadata, hint string, includePrereleases bool, maxVersions int) []string {
	parsed := make(map[string]*semver.Version, len(meta.Versions))
	for _, v := range meta.Versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			continue
		}
		if sv.Prerelease() != "" && !includePrereleases {
			continue
		}
		parsed[v] = sv
	}

	seen := make(map[string]bool, len(parsed))
	var ordered []string

	addIfUnseen := func(v string) {
		if parsed[v] == nil || seen[v] {
			return
		}
		seen[v] = true
		ordered = append(ordered, v)
	}

	for _, tag := range sortedDistTagNames(meta.DistTags) {
		addIfUnseen(meta.DistTags[tag])
	}

	hintVersion, hintErr := semver.NewVersion(hint)
	if hint != "" && hintErr == nil {
		remaining := remainingVersions(parsed, seen)
		sort.Slice(remaining, func(i, j int) bool {
			di := distanceAbs(weightedDistance(parsed[remaining[i]]), weightedDistance(hintVersion))
			dj := distanceAbs(weightedDistance(parsed[remaining[j]]), weightedDistance(hintVersion))
			return di < dj
		})
		for _, v := range remaining {
			addIfUnseen(v)
		}
	}

	remaining := remainingVersions(parsed, seen)
	sort.Slice(remaining, func(i, j int) bool {
		return meta.PublishedAtMs[remaining[i]] > meta.PublishedAtMs[remaining[j]]
	})
	for _, v := range remaining {
		addIfUnseen(v)
	}

	if maxVersions > 0 && len(ordered) > maxVersions {
		ordered = ordered[:maxVersions]
	}
	return ordered
}

func remainingVersions(parsed map[string]*semver.Version, seen map[string]bool) []string {
	out := make([]string, 0, len(parsed))
	for v := range parsed {
		if !seen[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func sortedDistTagNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if name == "latest" {
			names[0], names[i] = names[i], names[0]
			break
		}
	}
	return names
}

func distanceAbs(a, b int64) int64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
