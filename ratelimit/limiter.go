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


package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates requests to a single endpoint.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	rpm      int
}

// New creates a limiter that admits at most requestsPerMinute calls per minute,
// evenly spaced. A non-positive value disables limiting.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	interval := time.Minute / time.Duration(requestsPerMinute)
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		rpm:      requestsPerMinute,
	}
}

// Wait blocks until the next request is permitted and records it.
// The first call returns immediately. A nil Limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Interval returns the minimum spacing between permitted calls.
// Zero means unlimited.
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}

// RequestsPerMinute returns the configured ceiling, or 0 if unlimited.
func (l *Limiter) RequestsPerMinute() int {
	if l == nil {
		return 0
	}
	return l.rpm
}
