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
	"log/slog"
	"net/http"
	"time"

	"github.com/perseid/argos/ai"
)

const probeTimeout = 3 * time.Second

// Provider implements ai.Provider using OpenAI-compatible services.
// It manages analyzer and embedder instances.
//
// At construction time the provider probes the primary endpoint; if it is
// unreachable and a fallback host is configured, all services use the
// fallback and a single warning is logged. Endpoint selection happens once
// per process, never per item.
type Provider struct {
	config    *ai.Config
	host      string
	analyzer  *Analyzer
	embedder  *Embedder
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")

	host := config.PrimaryHost
	if err := probeHost(host); err != nil {
		if config.FallbackHost != "" {
			logger.Warn("primary inference endpoint unreachable, using fallback",
				"primary", config.PrimaryHost,
				"fallback", config.FallbackHost,
				"err", err)
			host = config.FallbackHost
		} else {
			logger.Warn("primary inference endpoint unreachable and no fallback configured",
				"primary", config.PrimaryHost,
				"err", err)
		}
	}

	analyzer, err := newAnalyzer(config, host)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config, host)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		host:     host,
		analyzer: analyzer,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// probeHost checks whether an OpenAI-compatible endpoint answers at all.
// Any HTTP response counts as reachable; only transport failures matter.
func probeHost(host string) error {
	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Get(host + "/models")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Analyzer returns the image analysis service.
func (p *Provider) Analyzer() ai.Analyzer {
	return p.analyzer
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Host returns the endpoint selected at startup.
func (p *Provider) Host() string {
	return p.host
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
