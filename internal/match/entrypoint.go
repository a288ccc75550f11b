package match

import (
	"regexp"
)

// entryPointPreference lists the extracted-file entry-point candidates
// in the exact preference order spec.md §4.8 specifies.
var entryPointPreference = []*regexp.Regexp{
	regexp.MustCompile(`^src/index\.(ts|tsx|js|jsx|mjs)$`),
	regexp.MustCompile(`^dist/index\.(js|mjs)$`),
	regexp.MustCompile(`^lib/index\.js$`),
	regexp.MustCompile(`^es/index\.js$`),
}

var anyIndexFile = regexp.MustCompile(`(^|/)index\.[^/]+$`)
var srcMainFile = regexp.MustCompile(`^src/main\.[^/]+$`)

// multiFileThreshold and smallEntryBytes are spec.md §4.8's multi-file
// detection constants, carried unchanged.
const (
	multiFileThreshold = 20
	smallEntryBytes    = 10 * 1024
)

// SelectEntryPoint picks the single best entry-point file from an
// extracted file set, per spec.md §4.8's preference order, falling back
// to the largest source file when nothing matches.
func SelectEntryPoint(files []File) (File, bool) {
	if len(files) == 0 {
		return File{}, false
	}

	for _, pat := range entryPointPreference {
		for _, f := range files {
			if pat.MatchString(f.Path) {
				return f, true
			}
		}
	}

	for _, f := range files {
		if anyIndexFile.MatchString(f.Path) {
			return f, true
		}
	}

	for _, f := range files {
		if srcMainFile.MatchString(f.Path) {
			return f, true
		}
	}

	largest := files[0]
	for _, f := range files[1:] {
		if len(f.Content) > len(largest.Content) {
			largest = f
		}
	}
	return largest, true
}

// IsMultiFile reports whether files should be treated as a modular
// package (more than multiFileThreshold files, and either no standard
// index file or the chosen entry is smaller than smallEntryBytes).
func IsMultiFile(files []File) bool {
	if len(files) <= multiFileThreshold {
		return false
	}

	entry, ok := SelectEntryPoint(files)
	if !ok {
		return true
	}

	hasStandardIndex := false
	for _, pat := range entryPointPreference {
		if pat.MatchString(entry.Path) {
			hasStandardIndex = true
			break
		}
	}

	return !hasStandardIndex || len(entry.Content) < smallEntryBytes
}

// aggregateContent concatenates every file's content for multi-file
// feature aggregation, separated so token boundaries never merge across
// files.
func aggregateContent(files []File) string {
	var total int
	for _, f := range files {
		total += len(f.Content) + 1
	}
	buf := make([]byte, 0, total)
	for _, f := range files {
		buf = append(buf, f.Content...)
		buf = append(buf, '\n')
	}
	return string(buf)
}
