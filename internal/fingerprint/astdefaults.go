package fingerprint

import "regexp"

// DefaultCommentStripper is a character-scanning approximation of the
// AST-aware comment stripper spec.md §4.7 treats as an external
// collaborator. It removes // line comments and /* */ block comments
// while leaving string and template literal contents untouched, by
// scanning character-by-character and tracking whether it is currently
// inside a quoted string rather than relying on a single regex (which
// cannot reliably distinguish "//not-a-comment" inside a string from a
// real comment).
func DefaultCommentStripper(content string) string {
	var out []byte
	inString := byte(0)
	i := 0
	for i < len(content) {
		c := content[i]

		if inString != 0 {
			out = append(out, c)
			if c == '\\' && i+1 < len(content) {
				out = append(out, content[i+1])
				i += 2
				continue
			}
			if c == inString {
				inString = 0
			}
			i++
			continue
		}

		switch {
		case c == '"' || c == '\'' || c == '`':
			inString = c
			out = append(out, c)
			i++
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			for i < len(content) && content[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			i += 2
			for i+1 < len(content) && !(content[i] == '*' && content[i+1] == '/') {
				i++
			}
			i += 2
		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// declarationPattern matches the common forms of a named top-level
// declaration: function/class declarations and const/let/var bindings.
var declarationPattern = regexp.MustCompile(
	`\b(?:function\*?|class)\s+([A-Za-z_$][\w$]*)|\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=`,
)

// DefaultDeclarationNameExtractor is a regex-based approximation of the
// AST-aware declaration-name extractor spec.md §4.7 treats as an
// external collaborator.
func DefaultDeclarationNameExtractor(content string) []string {
	var out []string
	for _, m := range declarationPattern.FindAllStringSubmatch(content, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		out = append(out, name)
	}
	return out
}
