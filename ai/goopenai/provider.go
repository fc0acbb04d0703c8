// Copyright 2025 Poiesic Systems
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


package goopenai

import (
	"log/slog"

	"github.com/poiesic/embedsync/ai"
)

// Provider implements ai.AIProvider using go-openai.
type Provider struct {
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider validates config and creates a go-openai backed provider.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	return &Provider{
		embedder: embedder,
		logger:   slog.Default().With("component", "goopenai-provider"),
	}, nil
}

// Name returns ai.ProviderGoOpenAI.
func (p *Provider) Name() string {
	return ai.ProviderGoOpenAI
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) Close() error {
	p.logger.Debug("closing go-openai provider")
	return nil
}
