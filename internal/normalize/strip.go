package normalize

import (
	"sort"
	"strings"
)

// StripKey returns the local part of a namespaced name: "{uri}Detector"
// becomes "Detector". Names without a namespace are returned unchanged.
func StripKey(key string) string {
	if i := strings.LastIndexByte(key, '}'); i >= 0 {
		return key[i+1:]
	}
	return key
}

// StripNamespaces applies StripKey to every mapping key in v, recursing into
// nested mappings and sequences. When two keys collapse to the same local
// name, the one sorting last wins.
func StripNamespaces(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[StripKey(k)] = StripNamespaces(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = StripNamespaces(item)
		}
		return out
	default:
		return v
	}
}
