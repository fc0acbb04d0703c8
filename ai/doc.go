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


// Package ai provides abstractions for the embedding services used by embedsync.
//
// The pipeline depends on the Embedder interface rather than on a concrete
// client, so the retrying embedding client and the orchestrator can be tested
// without a live service.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo client for OpenAI-compatible APIs (Ollama, LocalAI, vLLM, OpenAI)
//   - ai/goopenai: go-openai client, which reports HTTP status codes as typed errors
//   - ai/mock: Test doubles with injectable behavior and call counters
//
// Public constructors (openai.NewProvider, goopenai.NewEmbedder) return
// interface types. Mock constructors return concrete types so tests can inject
// behavior and assert on call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("text-embedding-3-small"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, []string{"func main() {}"})
package ai
