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


// Package mock provides test doubles for the ai service interfaces.
//
// The mocks let tests exercise the embedding client and the pipeline without
// a live service, with controlled and deterministic behavior.
//
// # Usage in Tests
//
//	// Deterministic vectors by default
//	embedder := mock.NewMockEmbedder()
//
//	// Fail the first two requests, then succeed
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    if embedder.CallCount() <= 2 {
//	        return nil, errors.New("503 service unavailable")
//	    }
//	    return mock.Vectors(texts, 8), nil
//	}
//
//	count := embedder.CallCount()
package mock
