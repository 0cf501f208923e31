package search

import "testing"

func TestTokenizeAndFilter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and trims punctuation",
			input: "Sunset, Beach!",
			want:  []string{"sunset", "beach"},
		},
		{
			name:  "removes stop words",
			input: "a dog on the beach",
			want:  []string{"dog", "beach"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "only stop words",
			input: "the a an of",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenizeAndFilter(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenizeAndFilter(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTextScore(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		document string
		want     float32
	}{
		{
			name:     "all words present",
			query:    "sunset beach",
			document: "a golden sunset at the beach",
			want:     1.0,
		},
		{
			name:     "half the words present",
			query:    "sunset mountain",
			document: "a golden sunset at the beach",
			want:     0.5,
		},
		{
			name:     "no words present",
			query:    "snowy peak",
			document: "a golden sunset at the beach",
			want:     0,
		},
		{
			name:     "case and punctuation ignored",
			query:    "Dog!",
			document: "portrait of a DOG.",
			want:     1.0,
		},
		{
			name:     "empty document",
			query:    "sunset",
			document: "",
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textScore(tokenizeAndFilter(tt.query), tt.document)
			if got != tt.want {
				t.Errorf("textScore(%q, %q) = %v, want %v", tt.query, tt.document, got, tt.want)
			}
		})
	}
}
