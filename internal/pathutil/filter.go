package pathutil

import "regexp"

// Filter decides which normalized source paths are extracted.
//
// node_modules/* paths are always included — internal/private packages
// often ship their un-bundled source under node_modules, so the
// extractor must not drop them — per spec.md's mandated "inclusive"
// rule for this core (an older "internal only" rule exists elsewhere
// and is deliberately not implemented here).
type Filter struct {
	Exclude []*regexp.Regexp
}

// NewFilter compiles the given exclude patterns into a Filter. Invalid
// patterns are skipped rather than failing the whole filter, since a
// single bad caller-supplied regex should not abort extraction.
func NewFilter(excludePatterns []string) *Filter {
	f := &Filter{}
	for _, pat := range excludePatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			continue
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f
}

// Include reports whether path p should be extracted.
func (f *Filter) Include(p string) bool {
	if isNodeModulesPath(p) {
		return true
	}
	for _, re := range f.Exclude {
		if re.MatchString(p) {
			return false
		}
	}
	return true
}

func isNodeModulesPath(p string) bool {
	if len(p) >= len("node_modules/") && p[:len("node_modules/")] == "node_modules/" {
		return true
	}
	for i := 0; i+len("/node_modules/") <= len(p); i++ {
		if p[i:i+len("/node_modules/")] == "/node_modules/" {
			return true
		}
	}
	return false
}
