package sourcemap

import "fmt"

// parseRaw dispatches a decoded JSON object to regular- or index-map
// parsing based on the presence of a "sections" key, and runs full
// structural + mappings validation in the same pass.
func parseRaw(raw map[string]interface{}) (*Map, *Result) {
	res := newResult()

	if _, ok := raw["sections"]; ok {
		idx, idxRes := parseIndexMap(raw, res)
		return &Map{Index: idx}, idxRes
	}

	reg, regRes := parseRegularMap(raw, res, true)
	return &Map{Regular: reg}, regRes
}

// parseRegularMap validates and extracts a regular (non-index) map from
// raw. validateMappings controls whether the mappings string is run
// through the streaming VLQ validator — nested section maps still need
// their own structural validation but the caller (parseIndexMap) can
// choose to skip mappings validation per-section if desired; by default
// it is always run.
func parseRegularMap(raw map[string]interface{}, res *Result, validateMappings bool) (*RegularMap, *Result) {
	m := &RegularMap{}

	// version
	verVal, hasVer := raw["version"]
	if !hasVer {
		res.addError(newErr(MissingVersion, "version field is required"))
	} else {
		switch v := verVal.(type) {
		case float64:
			m.Version = int(v)
			if int(v) != 3 {
				res.addError(newErrf(InvalidVersion, "version", "version must be 3, got %v", v))
			}
		default:
			res.addError(newErrf(InvalidVersion, "version", "version must be a number, got %T", v))
		}
	}

	// sources
	sourcesVal, hasSources := raw["sources"]
	if !hasSources {
		res.addError(newErr(MissingSources, "sources field is required"))
	} else {
		arr, ok := sourcesVal.([]interface{})
		if !ok {
			res.addError(newErrf(SourcesNotArray, "sources", "sources must be an array, got %T", sourcesVal))
		} else {
			m.Sources = make([]*string, len(arr))
			for i, entry := range arr {
				switch s := entry.(type) {
				case nil:
					m.Sources[i] = nil
				case string:
					v := s
					m.Sources[i] = &v
				default:
					res.addError(newErrf(SourcesNotArray, "sources", "sources[%d] must be a string or null, got %T", i, entry))
				}
			}
		}
	}

	// mappings
	mappingsVal, hasMappings := raw["mappings"]
	if !hasMappings {
		res.addError(newErr(MissingMappings, "mappings field is required"))
	} else if s, ok := mappingsVal.(string); ok {
		m.Mappings = s
	} else {
		res.addError(newErrf(MissingMappings, "mappings", "mappings must be a string, got %T", mappingsVal))
	}

	// file (optional string)
	if fileVal, ok := raw["file"]; ok {
		if s, ok := fileVal.(string); ok {
			m.File = s
		} else {
			res.addError(newErrf(InvalidFile, "file", "file must be a string, got %T", fileVal))
		}
	}

	// sourceRoot (optional string)
	if srVal, ok := raw["sourceRoot"]; ok {
		if s, ok := srVal.(string); ok {
			m.SourceRoot = s
		} else {
			res.addError(newErrf(InvalidSourceRoot, "sourceRoot", "sourceRoot must be a string, got %T", srVal))
		}
	}

	// names (optional []string)
	if namesVal, ok := raw["names"]; ok {
		arr, ok := namesVal.([]interface{})
		if !ok {
			res.addError(newErrf(InvalidNames, "names", "names must be an array, got %T", namesVal))
		} else {
			m.Names = make([]string, len(arr))
			for i, entry := range arr {
				s, ok := entry.(string)
				if !ok {
					res.addError(newErrf(InvalidNames, "names", "names[%d] must be a string, got %T", i, entry))
					continue
				}
				m.Names[i] = s
			}
		}
	}

	// sourcesContent (optional []string|null)
	if scVal, ok := raw["sourcesContent"]; ok {
		arr, ok := scVal.([]interface{})
		if !ok {
			res.addError(newErrf(InvalidSourcesContent, "sourcesContent", "sourcesContent must be an array, got %T", scVal))
		} else {
			m.SourcesContent = make([]*string, len(arr))
			for i, entry := range arr {
				switch s := entry.(type) {
				case nil:
					m.SourcesContent[i] = nil
				case string:
					v := s
					m.SourcesContent[i] = &v
				default:
					res.addError(newErrf(InvalidSourcesContent, "sourcesContent", "sourcesContent[%d] must be a string or null, got %T", i, entry))
				}
			}
			if len(m.SourcesContent) != len(m.Sources) {
				res.addWarning(fmt.Sprintf("sourcesContent length (%d) does not match sources length (%d)", len(m.SourcesContent), len(m.Sources)))
			}
		}
	}

	// ignoreList (optional []int, indices into sources)
	if ilVal, ok := raw["ignoreList"]; ok {
		arr, ok := ilVal.([]interface{})
		if !ok {
			res.addError(newErrf(InvalidIgnoreList, "ignoreList", "ignoreList must be an array, got %T", ilVal))
		} else {
			for i, entry := range arr {
				n, ok := entry.(float64)
				if !ok || n < 0 || n != float64(int(n)) {
					res.addError(newErrf(InvalidIgnoreList, "ignoreList", "ignoreList[%d] must be a non-negative integer, got %v", i, entry))
					continue
				}
				idx := int(n)
				if idx >= len(m.Sources) {
					res.addError(newErrf(InvalidIgnoreList, "ignoreList", "ignoreList[%d]=%d out of bounds for sources of length %d", i, idx, len(m.Sources)))
					continue
				}
				m.IgnoreList = append(m.IgnoreList, idx)
			}
		}
	}

	if validateMappings && hasMappings {
		if s, ok := mappingsVal.(string); ok {
			validateMappingsString(s, len(m.Sources), len(m.Names), res)
		}
	}

	return m, res
}

// parseIndexMap validates and extracts an index map from raw.
func parseIndexMap(raw map[string]interface{}, res *Result) (*IndexMap, *Result) {
	idx := &IndexMap{}

	if verVal, ok := raw["version"]; ok {
		if v, ok := verVal.(float64); ok {
			idx.Version = int(v)
			if int(v) != 3 {
				res.addError(newErrf(InvalidVersion, "version", "version must be 3, got %v", v))
			}
		} else {
			res.addError(newErrf(InvalidVersion, "version", "version must be a number, got %T", verVal))
		}
	} else {
		res.addError(newErr(MissingVersion, "version field is required"))
	}

	if _, hasMappings := raw["mappings"]; hasMappings {
		res.addError(newErr(IndexMapWithMappings, "index maps must not also define mappings"))
	}

	if fileVal, ok := raw["file"]; ok {
		if s, ok := fileVal.(string); ok {
			idx.File = s
		} else {
			res.addError(newErrf(InvalidFile, "file", "file must be a string, got %T", fileVal))
		}
	}

	sectionsVal, ok := raw["sections"]
	arr, isArr := sectionsVal.([]interface{})
	if !ok || !isArr {
		res.addError(newErrf(InvalidIndexMapSections, "sections", "sections must be an array, got %T", sectionsVal))
		return idx, res
	}

	var prev *Offset
	for i, entry := range arr {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			res.addError(newErrf(InvalidIndexMapSections, "sections", "sections[%d] must be an object, got %T", i, entry))
			continue
		}

		sec, offsetOK := parseSection(obj, i, res)
		if !offsetOK {
			continue
		}

		if prev != nil {
			switch compareOffsets(*prev, sec.Offset) {
			case 0:
				res.addError(newErrf(IndexMapOverlap, "sections", "sections[%d] offset duplicates the previous section's offset", i))
			case 1:
				res.addError(newErrf(IndexMapInvalidOrder, "sections", "sections[%d] is out of (line,column) order", i))
			}
		}
		prevCopy := sec.Offset
		prev = &prevCopy

		idx.Sections = append(idx.Sections, sec)
	}

	return idx, res
}

// parseSection validates a single sections[i] object and recursively
// validates its nested regular map. It returns ok=false only when the
// offset itself could not be parsed (the section is dropped entirely in
// that case); a bad nested map still yields a Section whose Map
// reflects whatever could be parsed, with errors already recorded.
func parseSection(obj map[string]interface{}, i int, res *Result) (Section, bool) {
	sec := Section{}

	offsetVal, ok := obj["offset"]
	offsetObj, isObj := offsetVal.(map[string]interface{})
	if !ok || !isObj {
		res.addError(newErrf(InvalidIndexMapOffset, "sections", "sections[%d].offset must be an object, got %T", i, offsetVal))
		return sec, false
	}

	line, lineOK := nonNegativeInt(offsetObj["line"])
	col, colOK := nonNegativeInt(offsetObj["column"])
	if !lineOK || !colOK {
		res.addError(newErrf(InvalidIndexMapOffset, "sections", "sections[%d].offset.line/column must be non-negative integers", i))
		return sec, false
	}
	sec.Offset = Offset{Line: line, Column: col}

	mapVal, ok := obj["map"]
	mapObj, isObj := mapVal.(map[string]interface{})
	if !ok || !isObj {
		res.addError(newErrf(InvalidIndexMapSectionMap, "sections", "sections[%d].map must be an object, got %T", i, mapVal))
		return sec, true
	}

	if _, nested := mapObj["sections"]; nested {
		res.addError(newErrf(IndexMapNested, "sections", "sections[%d].map must be a regular map, not an index map", i))
		return sec, true
	}

	nestedRes := newResult()
	reg, _ := parseRegularMap(mapObj, nestedRes, true)
	sec.Map = reg

	// Errors from the nested map are folded into the parent Result but
	// re-tagged so a caller can tell which section they came from; the
	// nested map's own validity never "escapes" as a second, separate
	// error SET — it is merged into this single accumulating Result.
	for _, e := range nestedRes.Errors {
		res.addError(&ValidationError{Code: e.Code, Message: e.Message, Field: fmt.Sprintf("sections[%d].%s", i, e.Field)})
	}
	for _, w := range nestedRes.Warnings {
		res.addWarning(fmt.Sprintf("sections[%d]: %s", i, w))
	}

	return sec, true
}

func nonNegativeInt(v interface{}) (int, bool) {
	n, ok := v.(float64)
	if !ok || n < 0 || n != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}

// compareOffsets returns -1, 0, or 1 as a compares before, equal to, or
// after b in (line, column) lexicographic order.
func compareOffsets(a, b Offset) int {
	switch {
	case a.Line != b.Line:
		if a.Line < b.Line {
			return -1
		}
		return 1
	case a.Column != b.Column:
		if a.Column < b.Column {
			return -1
		}
		return 1
	default:
		return 0
	}
}
