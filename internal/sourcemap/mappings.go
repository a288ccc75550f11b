package sourcemap

import (
	"strings"

	"github.com/webrecon/recon/internal/vlq"
)

// validateMappingsString runs the single streaming pass over a
// "mappings" string described in spec.md §4.3. It mutates res in place,
// appending every violation found. Segment decoding returns early (the
// rest of the mappings string is not examined) only on an invalid
// base64 character; every other violation is accumulated and scanning
// continues, so a caller gets a full report in one call.
func validateMappingsString(mappings string, numSources, numNames int, res *Result) {
	var genCol, srcIdx, origLine, origCol, nameIdx int64

	lines := strings.Split(mappings, ";")
	for _, lineStr := range lines {
		genCol = 0 // resets per line; every other accumulator persists.

		if lineStr == "" {
			continue
		}

		segments := strings.Split(lineStr, ",")
		for _, seg := range segments {
			if seg == "" {
				res.addError(newErrf(InvalidMappingSegment, "mappings", "empty segment"))
				continue
			}

			fields, decodeErr := decodeSegment(seg)
			if decodeErr != nil {
				if _, isInvalidChar := decodeErr.(*vlq.InvalidCharError); isInvalidChar {
					res.addError(newErrf(InvalidVLQ, "mappings", "%v", decodeErr))
					return
				}
				if _, isRange := decodeErr.(*vlq.RangeError); isRange {
					res.addError(newErrf(MappingValueExceeds32Bits, "mappings", "%v", decodeErr))
					continue
				}
				// Incomplete VLQ: accumulate and move to the next segment.
				res.addError(newErrf(InvalidVLQ, "mappings", "%v", decodeErr))
				continue
			}

			if len(fields) != 1 && len(fields) != 4 && len(fields) != 5 {
				res.addError(newErrf(InvalidMappingSegment, "mappings", "segment has %d fields, expected 1, 4, or 5", len(fields)))
				continue
			}

			genCol += fields[0]
			if genCol < 0 {
				res.addError(newErr(MappingNegativeValue, "generated column accumulator went negative"))
			}

			if len(fields) >= 4 {
				srcIdx += fields[1]
				origLine += fields[2]
				origCol += fields[3]

				if srcIdx < 0 || srcIdx >= int64(numSources) {
					res.addError(newErrf(MappingSourceIndexOutOfBounds, "mappings", "source index %d out of bounds for %d sources", srcIdx, numSources))
				}
				if origLine < 0 {
					res.addError(newErr(MappingNegativeValue, "original line accumulator went negative"))
				}
				if origCol < 0 {
					res.addError(newErr(MappingNegativeValue, "original column accumulator went negative"))
				}
			}

			if len(fields) == 5 {
				nameIdx += fields[4]
				if nameIdx < 0 || nameIdx >= int64(numNames) {
					res.addError(newErrf(MappingNameIndexOutOfBounds, "mappings", "name index %d out of bounds for %d names", nameIdx, numNames))
				}
			}
		}
	}
}

// decodeSegment decodes every back-to-back VLQ value in a single mapping
// segment (no delimiter separates fields within a segment — each field
// simply ends when a VLQ's continuation bit clears).
func decodeSegment(seg string) ([]int64, error) {
	var fields []int64
	pos := 0
	for pos < len(seg) {
		v, n, err := vlq.Decode(seg, pos)
		if err != nil {
			return fields, err
		}
		fields = append(fields, int64(v))
		pos += n
	}
	return fields, nil
}
