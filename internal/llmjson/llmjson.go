// Package llmjson decodes JSON out of free-form model output. Models
// asked for JSON frequently wrap it in markdown fences or surround it
// with prose, so decoding degrades in steps: strict parse, fence
// stripping, outermost-brace extraction. A final failure is a value,
// not an error — callers branch on the variant.
package llmjson

import (
	"encoding/json"
	"strings"
)

// Decoded is the tagged outcome of a decode attempt.
type Decoded struct {
	OK  bool
	Raw string // the exact substring that was parsed (empty on failure)
	Err error  // last parse error when !OK
}

// Decode tries to unmarshal raw into v.
func Decode(raw string, v any) Decoded {
	trimmed := strings.TrimSpace(raw)

	// 1. Strict parse.
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return Decoded{OK: true, Raw: trimmed}
	}

	// 2. Markdown fence stripping (```json ... ``` or bare ```).
	if stripped, ok := stripFences(trimmed); ok {
		if err := json.Unmarshal([]byte(stripped), v); err == nil {
			return Decoded{OK: true, Raw: stripped}
		}
	}

	// 3. Outermost-brace substring.
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		slice := trimmed[start : end+1]
		if err := json.Unmarshal([]byte(slice), v); err == nil {
			return Decoded{OK: true, Raw: slice}
		} else {
			return Decoded{Err: err}
		}
	}

	return Decoded{Err: json.Unmarshal([]byte(trimmed), v)}
}

func stripFences(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return "", false
	}
	body := strings.TrimPrefix(s, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body), true
}
