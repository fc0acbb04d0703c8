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


package embedding

import "errors"

var (
	// ErrMalformedRequest is returned when the service rejects a request as invalid.
	// Such requests are never retried.
	ErrMalformedRequest = errors.New("malformed embedding request")

	// ErrRetriesExhausted is returned when every attempt in the backoff schedule failed.
	ErrRetriesExhausted = errors.New("embedding retries exhausted")

	// ErrInitialization is returned when the embedding service cannot be reached at startup.
	ErrInitialization = errors.New("embedding service initialization failed")

	// ErrVectorCount is returned when the service answers with a different
	// number of vectors than texts, or with an empty vector.
	ErrVectorCount = errors.New("embedding response does not match request")

	// ErrNilEmbedder is returned when NewClient is given no embedder.
	ErrNilEmbedder = errors.New("embedder is required")

	// ErrInvalidSchedule is returned for an empty backoff schedule or a negative delay.
	ErrInvalidSchedule = errors.New("backoff schedule must contain at least one non-negative delay")
)
