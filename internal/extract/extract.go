// Package extract pulls JSON objects out of free-form model output. Language
// models wrap their JSON in prose, markdown fences, or both; extraction tries
// progressively looser strategies and reports "no match" rather than erroring,
// since a malformed message is dropped, not treated as a failure.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// looseObject is the last-resort pattern: the widest brace-delimited span.
var looseObject = regexp.MustCompile(`(?s)\{.*\}`)

// Object extracts the first JSON object from text. Strategies, in order of
// precedence: the whole text as strict JSON, a fenced code block, a
// balanced-brace scan that respects string literals and escapes, and finally
// a loose regex match. Returns ok=false when nothing parses; never errors.
func Object(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	if raw, ok := tryParse(trimmed); ok {
		return raw, true
	}

	for _, m := range fencedBlock.FindAllStringSubmatch(trimmed, -1) {
		if raw, ok := tryParse(strings.TrimSpace(m[1])); ok {
			return raw, true
		}
	}

	if span, ok := balancedBraces(trimmed); ok {
		if raw, ok := tryParse(span); ok {
			return raw, true
		}
	}

	if m := looseObject.FindString(trimmed); m != "" {
		if raw, ok := tryParse(m); ok {
			return raw, true
		}
	}

	return nil, false
}

// Unmarshal extracts a JSON object from text and decodes it into v.
func Unmarshal(text string, v any) bool {
	raw, ok := Object(text)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// tryParse accepts the candidate only if it is a complete JSON object.
func tryParse(s string) (json.RawMessage, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	return json.RawMessage(s), true
}

// balancedBraces returns the first brace-balanced span, tracking string
// literals so braces inside quoted values do not confuse the depth count.
func balancedBraces(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
