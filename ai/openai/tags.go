package openai

import (
	"sort"
	"strings"

	"github.com/perseid/argos/ai"
)

// SynthesizeTags derives tags from a caption by matching it against the
// tag vocabulary. Matched keywords are returned in caption order followed
// by their categories, capped at max.
func SynthesizeTags(caption string, max int) []string {
	words := tokenize(caption)
	if len(words) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var tags []string
	categories := make(map[string]bool)

	for _, word := range words {
		if seen[word] {
			continue
		}
		matched := false
		for category, keywords := range ai.TagVocabulary {
			for _, kw := range keywords {
				if word == kw {
					matched = true
					categories[category] = true
				}
			}
		}
		if matched {
			seen[word] = true
			tags = append(tags, word)
		}
	}

	// Categories follow the matched keywords, alphabetically for determinism
	sorted := make([]string, 0, len(categories))
	for c := range categories {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)
	for _, c := range sorted {
		if !seen[c] {
			tags = append(tags, c)
		}
	}

	if max > 0 && len(tags) > max {
		tags = tags[:max]
	}
	return tags
}

// normalizeTags lowercases, trims and dedupes model-provided tags.
func normalizeTags(tags []string, max int) []string {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		result = append(result, cleaned)
		if max > 0 && len(result) == max {
			break
		}
	}
	return result
}

// tokenize splits text into lowercase words with punctuation trimmed.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		cleaned := strings.Trim(f, ".,!?;:'\"-()[]{}")
		if cleaned != "" {
			words = append(words, cleaned)
		}
	}
	return words
}
