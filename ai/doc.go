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


// Package ai provides abstractions for the AI services used in argos.
//
// This package defines interfaces for image analysis (captioning + tag
// synthesis) and text embeddings. It follows the dependency inversion
// principle, allowing the pipeline and search components to depend on
// abstractions rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Analyzer: produces a caption, tags, and confidence from image bytes
//   - Embedder: generates vector embeddings from text
//   - Provider: aggregates AI services for convenient initialization
//
// Items and queries share one embedding space: an item's vector is the
// embedding of its analysis caption and tags, and queries are embedded
// with the same model at search time.
//
// # Error Classification
//
// Adapter errors fall into two classes. Errors wrapping ErrPermanentInput
// mark inputs that can never succeed (corrupt files); everything else is
// considered transient and eligible for retry. Use IsPermanent at the
// worker boundary to pick the failure path.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs,
//     with primary/fallback endpoint selection at startup
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Usage Example
//
//	config := ai.NewConfig(
//	    ai.WithPrimaryHost("http://gpu-box:11434"),
//	    ai.WithFallbackHost("http://localhost:11434"),
//	)
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	analysis, err := provider.Analyzer().Analyze(ctx, imageBytes)
//	vector, err := provider.Embedder().EmbedText(ctx, analysis.Caption)
package ai
