package stream

import (
	"encoding/json"
	"strings"
)

// ScanObjects splits text holding zero or more JSON objects written back
// to back and calls emit for each complete object that is valid JSON.
// Objects that fail to parse are skipped. The returned tail is the start
// of an object whose closing brace never arrived; it is empty when the
// text ended on an object boundary or held no object at all.
func ScanObjects(text string, emit func(json.RawMessage)) (tail string) {
	remaining := trimSeparators(text)
	for remaining != "" {
		end, opened := objectEnd(remaining)
		if end < 0 {
			if !opened {
				return ""
			}
			return remaining
		}
		candidate := remaining[:end]
		if json.Valid([]byte(candidate)) {
			emit(json.RawMessage(candidate))
		}
		remaining = trimSeparators(remaining[end:])
	}
	return ""
}

// objectEnd returns the index just past the brace that brings the depth
// back to zero after it went positive, or -1 when the text runs out
// first. opened reports whether any object was started. Braces inside
// string literals do not count, and a stray closing brace ahead of the
// first object cannot drive the depth below zero.
func objectEnd(s string) (end int, opened bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
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
			if depth > 0 {
				inString = true
			}
		case '{':
			depth++
			opened = true
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return -1, opened
}

func trimSeparators(s string) string {
	return strings.TrimLeft(s, " \t\r\n")
}
