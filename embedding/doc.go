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


// Package embedding provides the rate-limited, retrying client used to turn
// batches of text chunks into vectors.
//
// Every attempt first waits on the shared ratelimit.Limiter, then calls the
// configured ai.Embedder, optionally through a circuit breaker. Failures are
// classified:
//
//   - ClassQuota: rate limit or quota rejections. Retried after the attempt's backoff.
//   - ClassMalformed: the request itself was rejected. Returned immediately
//     wrapping ErrMalformedRequest.
//   - ClassTransient: anything else. Retried after the attempt's backoff.
//
// When the schedule is used up the client returns an error wrapping
// ErrRetriesExhausted. Callers record the batch as failed and move on.
//
// # Usage
//
//	limiter := ratelimit.New(50)
//	client, err := embedding.NewClient(provider.Embedder(), limiter,
//	    embedding.WithBackoff(time.Second, 4*time.Second, 10*time.Second),
//	)
//	vectors, err := client.Embed(ctx, texts)
package embedding
