// Copyright 2025 Perseid Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/perseid/argos/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Analyzer implements ai.Analyzer using an OpenAI-compatible vision chat API.
type Analyzer struct {
	client  llms.Model
	maxTags int
	logger  *slog.Logger
}

// analysisResponse matches the JSON structure the vision model is prompted for.
type analysisResponse struct {
	Caption    string   `json:"caption"`
	Tags       []string `json:"tags"`
	Confidence float32  `json:"confidence"`
}

// newAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance; host is the endpoint selected
// by the provider's startup probe.
func newAnalyzer(config *ai.Config, host string) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithModel(config.CaptionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		client:  client,
		maxTags: config.MaxTags,
		logger:  slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewAnalyzer creates a new analyzer using the provided configuration,
// talking to the configured primary host.
//
// Returns ai.Analyzer interface to enforce abstraction.
func NewAnalyzer(config *ai.Config) (ai.Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newAnalyzer(config, config.PrimaryHost)
}

// Analyze runs vision captioning on the image and synthesizes tags.
// Corrupt or non-image content fails permanently; transport and parse
// failures are transient.
func (a *Analyzer) Analyze(ctx context.Context, image []byte) (*ai.Analysis, error) {
	if len(image) == 0 {
		return nil, ai.Permanent(ai.ErrEmptyInput)
	}

	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return nil, ai.Permanent(ai.ErrUnsupportedContent)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mime, image),
				llms.TextPart(analysisPrompt),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result analysisResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate caption", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			lastErr = ai.ErrEmptyResponse
			continue
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing vision response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse vision response after retries", "err", lastErr)
		return nil, lastErr
	}

	analysis := &ai.Analysis{
		Caption:    strings.TrimSpace(result.Caption),
		Tags:       normalizeTags(result.Tags, a.maxTags),
		Confidence: clampConfidence(result.Confidence),
	}

	// Some vision models describe well but tag poorly; fall back to
	// keyword synthesis from the caption.
	if len(analysis.Tags) == 0 && analysis.Caption != "" {
		analysis.Tags = SynthesizeTags(analysis.Caption, a.maxTags)
	}

	a.logger.Debug("analyzed image",
		"caption_length", len(analysis.Caption),
		"tags", len(analysis.Tags),
		"confidence", analysis.Confidence)

	return analysis, nil
}

// stripCodeFences removes markdown code fences some models wrap JSON in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// unquotedKeyPattern matches a key missing its opening quote after { or ,
// e.g. `{ caption": ...` which some local models emit.
var unquotedKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z_ ]*)":`)

// repairJSON fixes common JSON formatting issues in LLM responses.
func repairJSON(s string) string {
	return unquotedKeyPattern.ReplaceAllString(s, `$1"$2":`)
}

func clampConfidence(c float32) float32 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
