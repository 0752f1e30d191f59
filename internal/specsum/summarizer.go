// Package specsum renders short digests of part spec blobs.
package specsum

import (
	"bytes"
	"encoding/json"
	"strings"

	"pcadvisor/internal/model"
)

// Fixed digests for blobs that cannot be projected.
const (
	NoDetail        = "상세 스펙 정보 없음"
	ProcessingError = "스펙 처리 중 오류"
	NotSummarized   = "상세 스펙 확인 필요"
)

const segmentSep = " / "

// Summarize projects the category's digest fields out of blob. It never
// fails: absent blobs, unparseable blobs and categories without a projection
// map to fixed strings, and missing fields render as empty segments.
func Summarize(c model.Category, blob string) string {
	if trimmed := strings.TrimSpace(blob); trimmed == "" || trimmed == "null" {
		return NoDetail
	}
	specs, ok := parse(blob)
	if !ok {
		return ProcessingError
	}
	projection := c.DigestProjection()
	if len(projection) == 0 {
		return NotSummarized
	}

	segments := make([]string, len(projection))
	for i, alternates := range projection {
		for _, key := range alternates {
			if v := scalar(specs[key]); v != "" {
				segments[i] = v
				break
			}
		}
	}
	return strings.Join(segments, segmentSep)
}

func parse(blob string) (map[string]json.RawMessage, bool) {
	dec := json.NewDecoder(strings.NewReader(blob))
	var specs map[string]json.RawMessage
	if err := dec.Decode(&specs); err != nil || specs == nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return specs, true
}

// scalar renders strings unquoted, numbers and booleans in their JSON form,
// and everything else as empty.
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case 'n', '{', '[':
		return ""
	}
	return string(raw)
}

// Flatten returns the scalar members of a spec blob as strings. Nested
// values, nulls and empty strings are left out; a blob that is not a JSON
// object yields nil.
func Flatten(blob string) map[string]string {
	specs, ok := parse(blob)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(specs))
	for k, raw := range specs {
		if v := scalar(raw); v != "" {
			out[k] = v
		}
	}
	return out
}
