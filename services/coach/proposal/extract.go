// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package proposal

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Fence patterns for the text extraction strategies. The labeled fence
// accepts both hyphen and underscore spellings; models emit either.
var (
	planFenceRe = regexp.MustCompile("(?s)```plan[-_]proposal\\s*\n(.*?)```")
	jsonFenceRe = regexp.MustCompile("(?s)```json\\s*\n(.*?)```")
)

// ExtractFromText pulls a raw proposal JSON object out of the model's
// closing text.
//
// # Description
//
// Strategies run in fixed priority order; the order is a contract, not a
// tuning knob:
//
//  1. A fenced block labeled plan-proposal, parsed after stripping // and
//     /* */ comments; on failure, retried on the substring between the
//     first "{" and the last "}" inside the block.
//  2. A fenced generic json block whose parsed object has a "days" array.
//  3. A bare JSON-looking substring containing a "days" key.
//
// Outputs:
//   - []byte: The candidate JSON object, nil when no strategy matched.
//   - bool: Whether any strategy produced a candidate.
func ExtractFromText(text string) ([]byte, bool) {
	if text == "" {
		return nil, false
	}
	for _, strategy := range []func(string) ([]byte, bool){
		extractLabeledFence,
		extractJSONFence,
		extractBareDays,
	} {
		if raw, ok := strategy(text); ok {
			return raw, true
		}
	}
	return nil, false
}

// extractLabeledFence handles the dedicated plan-proposal fence.
func extractLabeledFence(text string) ([]byte, bool) {
	m := planFenceRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	body := stripComments(m[1])

	if raw, ok := parseObject(body); ok {
		return raw, true
	}

	// Retry on the braces-bounded core; models sometimes wrap the object in
	// prose inside the fence.
	first := strings.Index(body, "{")
	last := strings.LastIndex(body, "}")
	if first >= 0 && last > first {
		if raw, ok := parseObject(body[first : last+1]); ok {
			return raw, true
		}
	}
	return nil, false
}

// extractJSONFence handles generic ```json fences, accepting only objects
// carrying a days key.
func extractJSONFence(text string) ([]byte, bool) {
	for _, m := range jsonFenceRe.FindAllStringSubmatch(text, -1) {
		raw, ok := parseObject(stripComments(m[1]))
		if !ok {
			continue
		}
		if hasDaysKey(raw) {
			return raw, true
		}
	}
	return nil, false
}

// extractBareDays locates an unfenced JSON object containing a "days" key by
// balanced-brace scanning outward from the key.
func extractBareDays(text string) ([]byte, bool) {
	daysIdx := strings.Index(text, `"days"`)
	if daysIdx < 0 {
		return nil, false
	}

	// Try each opening brace before the key, innermost outward, until one
	// balances to a span covering the key and parses.
	for start := strings.LastIndex(text[:daysIdx], "{"); start >= 0; start = strings.LastIndex(text[:start], "{") {
		end := matchBrace(text, start)
		if end < 0 || end < daysIdx {
			continue
		}
		raw, ok := parseObject(text[start : end+1])
		if !ok {
			continue
		}
		if hasDaysKey(raw) {
			return raw, true
		}
	}
	return nil, false
}

// parseObject validates that s is a JSON object and returns it compacted to
// its raw bytes.
func parseObject(s string) ([]byte, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	return []byte(s), true
}

// hasDaysKey reports whether the raw object carries a days key.
func hasDaysKey(raw []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, ok := probe["days"]
	return ok
}

// matchBrace returns the index of the brace closing the one at start,
// skipping string literals. Returns -1 when unbalanced.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripComments removes // line comments and /* */ block comments without
// touching string literals.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	inLineComment := false
	inBlockComment := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
				b.WriteByte(c)
			}
		case inBlockComment:
			if c == '*' && i+1 < len(s) && s[i+1] == '/' {
				inBlockComment = false
				i++
			}
		case inString:
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		default:
			if c == '"' {
				inString = true
				b.WriteByte(c)
				continue
			}
			if c == '/' && i+1 < len(s) {
				if s[i+1] == '/' {
					inLineComment = true
					i++
					continue
				}
				if s[i+1] == '*' {
					inBlockComment = true
					i++
					continue
				}
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}
