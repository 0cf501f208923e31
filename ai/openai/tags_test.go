package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeTags(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    []string
	}{
		{
			name:    "dog on beach",
			caption: "a golden retriever dog running on the beach at sunset",
			want:    []string{"dog", "beach", "sunset", "animals", "nature"},
		},
		{
			name:    "no vocabulary matches",
			caption: "abstract geometric shapes",
			want:    nil,
		},
		{
			name:    "empty caption",
			caption: "",
			want:    nil,
		},
		{
			name:    "duplicate words counted once",
			caption: "a dog and another dog",
			want:    []string{"dog", "animals"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SynthesizeTags(tt.caption, 8)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynthesizeTags_Cap(t *testing.T) {
	caption := "a man and woman with a dog and cat near a tree by the lake at a party"
	got := SynthesizeTags(caption, 3)
	assert.Len(t, got, 3)
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{" Dog ", "dog", "BEACH", "", "sunset"}, 2)
	assert.Equal(t, []string{"dog", "beach"}, got)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "missing opening quote on key",
			input: `{ caption": "a dog", tags": []}`,
			want:  `{ "caption": "a dog", "tags": []}`,
		},
		{
			name:  "well formed untouched",
			input: `{"caption": "a dog"}`,
			want:  `{"caption": "a dog"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.input))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	input := "```json\n{\"caption\": \"x\"}\n```"
	assert.Equal(t, `{"caption": "x"}`, stripCodeFences(input))
}
