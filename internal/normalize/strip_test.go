package normalize

import (
	"reflect"
	"testing"
)

func TestStripKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"clark notation", "{http://www.fei.com/Metadata}Detector", "Detector"},
		{"plain key", "Detector", "Detector"},
		{"empty", "", ""},
		{"trailing brace", "{urn:x}", ""},
		{"last separator wins", "{a}{b}Name", "Name"},
		{"colon prefix untouched", "fei:Detector", "fei:Detector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripKey(tt.key); got != tt.want {
				t.Errorf("StripKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestStripNamespaces(t *testing.T) {
	input := map[string]any{
		"{urn:sem}Metadata": map[string]any{
			"{urn:sem}Detector": []any{
				map[string]any{"{urn:sem}Name": "ETD"},
				"TLD",
			},
			"Beam": nil,
		},
		"count": 3,
	}
	want := map[string]any{
		"Metadata": map[string]any{
			"Detector": []any{
				map[string]any{"Name": "ETD"},
				"TLD",
			},
			"Beam": nil,
		},
		"count": 3,
	}

	got := StripNamespaces(input)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StripNamespaces() = %#v, want %#v", got, want)
	}
}

func TestStripNamespaces_Idempotent(t *testing.T) {
	inputs := []any{
		nil,
		"scalar",
		42,
		[]any{"{urn:a}x", map[string]any{"{urn:a}k": "{urn:a}v"}},
		map[string]any{"{urn:a}outer": map[string]any{"{urn:b}inner": []any{1, 2}}},
	}

	for _, input := range inputs {
		once := StripNamespaces(input)
		twice := StripNamespaces(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("StripNamespaces not idempotent for %#v: %#v != %#v", input, once, twice)
		}
	}
}

func TestStripNamespaces_DoesNotMutateInput(t *testing.T) {
	input := map[string]any{"{urn:a}k": "v"}
	StripNamespaces(input)
	if _, ok := input["{urn:a}k"]; !ok {
		t.Error("input mapping was modified")
	}
}
