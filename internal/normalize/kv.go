package normalize

import "strings"

// PlainKey wraps the output of DecodeKeyValues so it can be told apart from a
// decoded XML root.
const PlainKey = "plain"

// DecodeKeyValues parses line-oriented "key=value" text. Each line holding an
// '=' is split on the first one and both sides trimmed; other lines are
// ignored. The result is wrapped under PlainKey. ok is false when s holds no
// pair at all.
func DecodeKeyValues(s string) (result map[string]any, ok bool) {
	if !strings.Contains(s, "=") {
		return nil, false
	}

	pairs := make(map[string]any)
	for _, line := range splitLines(s) {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		pairs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if len(pairs) == 0 {
		return nil, false
	}
	return map[string]any{PlainKey: pairs}, true
}

func splitLines(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			return true
		}
		return false
	})
}
