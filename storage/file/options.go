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


package file

import (
	"log/slog"
	"time"
)

type options struct {
	lockWait time.Duration
	logger   *slog.Logger
}

// Option configures a file store.
type Option func(*options)

// WithLockWait sets how long a writer waits for another process to release
// the lock before failing with storage.ErrLocked.
func WithLockWait(d time.Duration) Option {
	return func(o *options) {
		o.lockWait = d
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(component string, opts []Option) options {
	o := options{
		lockWait: defaultLockWait,
		logger:   slog.Default().With("component", component),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
