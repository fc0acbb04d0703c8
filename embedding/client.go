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

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poiesic/embedsync/ai"
	"github.com/poiesic/embedsync/ratelimit"
	"github.com/sony/gobreaker"
)

// probeText is embedded once at startup to verify the service is reachable.
const probeText = "embedsync connectivity probe"

// Client embeds batches of texts with rate limiting and bounded retries.
// A Client is safe for concurrent use, though the pipeline drives it from a
// single goroutine.
type Client struct {
	embedder ai.Embedder
	limiter  *ratelimit.Limiter
	schedule []time.Duration
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger

	breakerSettings *BreakerSettings

	// sleep is replaced in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error

	attempts atomic.Int64
	calls    atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithBackoff sets the delay after each failed attempt. The number of delays
// is the number of attempts.
func WithBackoff(delays ...time.Duration) Option {
	return func(c *Client) {
		c.schedule = append([]time.Duration(nil), delays...)
	}
}

// WithBreaker puts a circuit breaker in front of the embedder.
func WithBreaker(settings BreakerSettings) Option {
	return func(c *Client) {
		c.breakerSettings = &settings
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client that calls embedder, gated by limiter.
// A nil limiter disables rate limiting.
func NewClient(embedder ai.Embedder, limiter *ratelimit.Limiter, opts ...Option) (*Client, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	c := &Client{
		embedder: embedder,
		limiter:  limiter,
		schedule: append([]time.Duration(nil), DefaultBackoff...),
		logger:   slog.Default().With("component", "embedding-client"),
		sleep:    SleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := validateSchedule(c.schedule); err != nil {
		return nil, err
	}
	if c.breakerSettings != nil {
		c.breaker = newBreaker(*c.breakerSettings, c.logger)
	}
	return c, nil
}

// Embed returns one vector per text, in input order.
//
// Each attempt takes one limiter slot. Quota and transient failures sleep for
// the attempt's backoff delay before the next attempt; no sleep follows the
// last one. Malformed requests fail at once with ErrMalformedRequest. When all
// attempts fail the error wraps ErrRetriesExhausted and the last cause.
// Context cancellation is returned as-is.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		c.attempts.Add(1)

		vectors, err := c.call(ctx, texts)
		if err == nil {
			if attempt > 1 {
				c.logger.Debug("embedding succeeded after retry", "attempt", attempt, "texts", len(texts))
			}
			return vectors, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		class := Classify(err)
		if class == ClassMalformed {
			c.logger.Warn("embedding request rejected", "texts", len(texts), "err", err)
			return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}

		// Don't sleep after the last attempt
		if attempt == c.MaxAttempts() {
			c.logger.Warn("embedding attempt failed", "attempt", attempt, "maxAttempts", c.MaxAttempts(),
				"class", class.String(), "err", err)
			break
		}

		delay := c.schedule[attempt-1]
		c.logger.Warn("embedding attempt failed, will retry", "attempt", attempt, "maxAttempts", c.MaxAttempts(),
			"class", class.String(), "delay", delay, "err", err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.MaxAttempts(), lastErr)
}

// Probe embeds a short text to verify the service is reachable and accepts
// requests. Failures wrap ErrInitialization.
func (c *Client) Probe(ctx context.Context) error {
	vectors, err := c.Embed(ctx, []string{probeText})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	c.logger.Debug("embedding service probe succeeded", "dimensions", len(vectors[0]))
	return nil
}

// Attempts returns the number of attempts made, including those rejected by
// the circuit breaker.
func (c *Client) Attempts() int64 {
	return c.attempts.Load()
}

// Calls returns the number of requests that reached the embedder.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

// MaxAttempts returns the number of attempts per Embed call.
func (c *Client) MaxAttempts() int {
	return len(c.schedule)
}

func (c *Client) call(ctx context.Context, texts []string) ([][]float32, error) {
	if c.breaker == nil {
		return c.embed(ctx, texts)
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return result.([][]float32), nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrVectorCount, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector at position %d", ErrVectorCount, i)
		}
	}
	return vectors, nil
}
