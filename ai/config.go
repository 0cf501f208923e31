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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// PrimaryHost is the base URL for the preferred (typically GPU-backed)
	// OpenAI-compatible inference endpoint.
	// Example: "http://localhost:11434/v1"
	PrimaryHost string

	// FallbackHost is an optional base URL used when the primary endpoint
	// is unreachable at startup (typically a CPU-only instance).
	// Empty means no fallback.
	FallbackHost string

	// CaptionModel is the vision model identifier used for image captioning.
	// Example: "llava:7b", "gpt-4o-mini"
	CaptionModel string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// MaxTags is the maximum number of tags kept per analysis.
	// Default: 8
	MaxTags int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithPrimaryHost sets the preferred inference endpoint URL.
func WithPrimaryHost(host string) ConfigOption {
	return func(c *Config) {
		c.PrimaryHost = host
	}
}

// WithFallbackHost sets the fallback inference endpoint URL.
func WithFallbackHost(host string) ConfigOption {
	return func(c *Config) {
		c.FallbackHost = host
	}
}

// WithCaptionModel sets the vision captioning model identifier.
func WithCaptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CaptionModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithMaxTags sets the maximum number of tags kept per analysis.
func WithMaxTags(max int) ConfigOption {
	return func(c *Config) {
		c.MaxTags = max
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		PrimaryHost:    "http://localhost:11434/v1",
		CaptionModel:   "llava:7b",
		EmbeddingModel: "embeddinggemma",
		MaxTags:        8,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithPrimaryHost("http://gpu-box:11434"),
//	    ai.WithFallbackHost("http://localhost:11434"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.PrimaryHost = normalizeHost(c.PrimaryHost)
	c.FallbackHost = normalizeHost(c.FallbackHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.PrimaryHost == "" {
		return errors.New("ai config: PrimaryHost is required")
	}
	if c.CaptionModel == "" {
		return errors.New("ai config: CaptionModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.MaxTags <= 0 {
		return errors.New("ai config: MaxTags must be positive")
	}
	return nil
}
