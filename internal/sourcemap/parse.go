package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

const dataURIPrefix = "data:application/json"

// Parse decodes raw JSON bytes into a Map and validates its structure and
// mappings in one pass, returning the best-effort parsed Map alongside
// the Result describing any violations. Parse never returns a nil Map
// when it returns a nil error — structural failures become entries in
// Result.Errors, not an early return — except when the root JSON itself
// fails to parse, which is unrecoverable and raised as a *FatalError.
func Parse(data []byte, sourceURL string) (*Map, *Result, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &FatalError{Code: InvalidJSON, URL: sourceURL, Err: err}
	}

	m, res := parseRaw(raw)
	return m, res, nil
}

// ParseDataURI decodes a `data:application/json[;base64],...` URI and
// then parses it exactly as Parse does.
func ParseDataURI(uri string, sourceURL string) (*Map, *Result, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return nil, nil, &FatalError{Code: InvalidDataURI, URL: sourceURL, Err: errInvalidDataURI}
	}

	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, nil, &FatalError{Code: InvalidDataURI, URL: sourceURL, Err: errInvalidDataURI}
	}

	meta, payload := uri[len("data:"):comma], uri[comma+1:]

	var decoded []byte
	if strings.Contains(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, nil, &FatalError{Code: InvalidBase64, URL: sourceURL, Err: err}
		}
		decoded = b
	} else {
		s, err := unescapeURIComponent(payload)
		if err != nil {
			return nil, nil, &FatalError{Code: InvalidDataURI, URL: sourceURL, Err: err}
		}
		decoded = []byte(s)
	}

	return Parse(decoded, sourceURL)
}

// ParseAuto dispatches to Parse or ParseDataURI based on the prefix of
// the input: a `data:` URI goes through ParseDataURI, anything else is
// treated as raw JSON bytes.
func ParseAuto(input []byte, sourceURL string) (*Map, *Result, error) {
	if strings.HasPrefix(string(input), "data:") {
		return ParseDataURI(string(input), sourceURL)
	}
	return Parse(input, sourceURL)
}

var errInvalidDataURI = &dataURIError{}

type dataURIError struct{}

func (e *dataURIError) Error() string { return "not a valid application/json data URI" }

// unescapeURIComponent performs the minimal percent-decoding needed for
// a non-base64 data URI payload.
func unescapeURIComponent(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			var hi, lo byte
			if h, ok := hexVal(s[i+1]); ok {
				hi = h
			} else {
				b.WriteByte(s[i])
				continue
			}
			if l, ok := hexVal(s[i+2]); ok {
				lo = l
			} else {
				b.WriteByte(s[i])
				continue
			}
			b.WriteByte(hi<<4 | lo)
			i += 2
		} else {
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
