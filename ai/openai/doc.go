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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package implements the ai.Provider interface using the langchaingo
// library to communicate with OpenAI or OpenAI-compatible services (such as
// Ollama, LocalAI, or vLLM). Captioning uses a vision chat model prompted
// for JSON output; embeddings use the embeddings API.
//
// The provider probes the primary endpoint once at startup and falls back
// to the configured secondary endpoint when the primary is unreachable,
// logging a single warning.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithPrimaryHost("http://gpu-box:11434"),   // /v1 added automatically
//	    ai.WithFallbackHost("http://localhost:11434"),
//	    ai.WithCaptionModel("llava:7b"),
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	analysis, err := provider.Analyzer().Analyze(ctx, imageBytes)
//	vector, err := provider.Embedder().EmbedText(ctx, analysis.Caption)
package openai
