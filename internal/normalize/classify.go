package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// MaxDepth bounds how deeply nested sequences are followed.
const MaxDepth = 64

var ErrTooDeep = errors.New("value nested too deeply")

// Classify decides the shape of one raw tag value and returns its normalized
// form. Strategies are tried in a fixed order and the first that applies
// wins:
//
//  1. nil or empty string -> nil
//  2. sequence -> element-wise Classify (not flattened)
//  3. bytes -> lenient UTF-8 text, nil if nothing usable remains
//  4. text that parses as XML -> {root: subtree}, namespaces stripped
//  5. text with key=value lines -> {"plain": {key: value}}
//  6. anything encoding/json accepts -> returned unchanged
//  7. otherwise nil
//
// A reader-side error placeholder, or nesting past MaxDepth, is returned as
// an error so the caller can attribute it to a tag.
func Classify(v any) (any, error) {
	return classify(v, 0)
}

func classify(v any, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}

	switch t := v.(type) {
	case nil:
		return nil, nil
	case error:
		return nil, fmt.Errorf("unreadable value: %w", t)
	case string:
		if t == "" {
			return nil, nil
		}
		return classifyText(t), nil
	case []byte:
		text, ok := decodeBinary(t)
		if !ok {
			return nil, nil
		}
		return classifyText(text), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			item, err := classify(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = item
		}
		return out, nil
	}

	return opaque(v), nil
}

func classifyText(text string) any {
	if decoded, err := DecodeXML(text); err == nil {
		return StripNamespaces(decoded)
	}
	if plain, ok := DecodeKeyValues(text); ok {
		return plain
	}
	return opaque(text)
}

// decodeBinary drops invalid UTF-8 sequences and trailing NUL padding.
func decodeBinary(b []byte) (string, bool) {
	text := strings.TrimRight(strings.ToValidUTF8(string(b), ""), "\x00")
	if text == "" {
		return "", false
	}
	return text, true
}

func opaque(v any) any {
	if _, err := json.Marshal(v); err != nil {
		return nil
	}
	return v
}
