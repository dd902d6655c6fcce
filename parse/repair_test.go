package parse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTrailingCommas(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object", `{"a": 1,}`, `{"a": 1}`},
		{"array", `[1, 2,]`, `[1, 2]`},
		{"nested", `{"a": [1,],}`, `{"a": [1]}`},
		{"with whitespace", "{\"a\": 1,\n}", "{\"a\": 1\n}"},
		{"no change", `{"a": 1}`, `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripTrailingCommas(tt.in))
		})
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing opening quote", `{"a": 1, type": "x"}`},
		{"bare key", `{type: "x"}`},
		{"bare key after comma", `{"a": 1, type: "x"}`},
		{"bare key with underscore", `{core_concepts: []}`},
		{"already valid", `{"type": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repaired := repairJSON(tt.in)
			assert.True(t, json.Valid([]byte(repaired)), "repaired: %s", repaired)
		})
	}
}

func TestRepairJSON_PreservesValues(t *testing.T) {
	repaired := repairJSON(`{label: "a plain value stays intact"}`)

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal([]byte(repaired), &decoded))
	assert.Equal(t, "a plain value stays intact", decoded["label"])
}
