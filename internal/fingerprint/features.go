package fingerprint

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	stringLiteral = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)'`)
	callPattern   = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*\(`)
	numericConst  = regexp.MustCompile(`\b\d+\.\d+\b|\b\d{3,}\b`)
)

// ExtractFeatures computes the minification-resistant feature sets from
// spec.md §4.7: string literals longer than 5 characters (unquoted,
// trimmed), call-pattern "name:arity" pairs, and numeric constants of
// at least 3 digits or any decimal number.
func ExtractFeatures(content string) FeatureSet {
	return FeatureSet{
		Strings:      extractStrings(content),
		CallPatterns: extractCallPatterns(content),
		Numbers:      extractNumbers(content),
	}
}

func extractStrings(content string) []string {
	var out []string
	for _, m := range stringLiteral.FindAllStringSubmatch(content, -1) {
		s := m[1]
		if s == "" {
			s = m[2]
		}
		s = strings.TrimSpace(s)
		if len(s) > 5 {
			out = append(out, s)
		}
	}
	return out
}

func extractCallPatterns(content string) []string {
	var out []string
	for _, loc := range callPattern.FindAllStringSubmatchIndex(content, -1) {
		name := content[loc[2]:loc[3]]
		openParen := loc[1] - 1
		arity := countTopLevelArgs(content, openParen)
		out = append(out, name+":"+strconv.Itoa(arity))
	}
	return out
}

// countTopLevelArgs counts the commas at paren-depth 1 within the
// parenthesized argument list starting at openParenIdx (the index of
// the "(" itself), ignoring commas nested inside further parens,
// brackets, or braces, and returns commas+1 when any non-whitespace
// content exists between the parens, else 0.
func countTopLevelArgs(content string, openParenIdx int) int {
	depth := 0
	commas := 0
	sawContent := false

	for i := openParenIdx; i < len(content); i++ {
		switch content[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if sawContent {
					return commas + 1
				}
				return 0
			}
		case ',':
			if depth == 1 {
				commas++
			}
		default:
			if content[i] != ' ' && content[i] != '\t' && content[i] != '\n' && content[i] != '\r' {
				sawContent = true
			}
		}
	}
	return commas
}

func extractNumbers(content string) []string {
	return numericConst.FindAllString(content, -1)
}
