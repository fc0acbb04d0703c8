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


package source

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/embedsync/core"
)

// DefaultReadWorkers is the default number of files read concurrently.
const DefaultReadWorkers = 4

// Content is the outcome of reading one descriptor.
type Content struct {
	Descriptor core.FileDescriptor
	Text       string
	Err        error
}

// ReadFunc reads the content behind a locator.
type ReadFunc func(locator string) (string, error)

// Loader reads descriptor contents ahead of the consumer using a bounded
// worker pool. Results are always delivered in input order.
type Loader struct {
	workers int
	pool    *ants.Pool
	read    ReadFunc
	logger  *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithReadFunc replaces the function used to read content.
func WithReadFunc(read ReadFunc) LoaderOption {
	return func(l *Loader) {
		l.read = read
	}
}

// NewLoader creates a loader reading up to workers files at a time.
// With workers <= 1 files are read synchronously and no pool is started.
func NewLoader(workers int, opts ...LoaderOption) (*Loader, error) {
	if workers < 1 {
		workers = 1
	}
	l := &Loader{
		workers: workers,
		read:    ReadContent,
		logger:  slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}

	if workers > 1 {
		pool, err := ants.NewPool(workers)
		if err != nil {
			return nil, err
		}
		l.pool = pool
	}
	return l, nil
}

// Workers returns the read-ahead window size.
func (l *Loader) Workers() int {
	return l.workers
}

// Each reads descriptors in windows of Workers() and calls fn for each result
// in input order. It stops at the first error returned by fn or when ctx is
// done. Read failures are reported in Content.Err, not returned.
func (l *Loader) Each(ctx context.Context, descriptors []core.FileDescriptor, fn func(Content) error) error {
	for start := 0; start < len(descriptors); start += l.workers {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+l.workers, len(descriptors))
		for _, content := range l.readWindow(descriptors[start:end]) {
			if err := fn(content); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) readWindow(window []core.FileDescriptor) []Content {
	results := make([]Content, len(window))
	if l.pool == nil || len(window) == 1 {
		for i, desc := range window {
			results[i] = l.readOne(desc)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, desc := range window {
		wg.Add(1)
		err := l.pool.Submit(func() {
			defer wg.Done()
			results[i] = l.readOne(desc)
		})
		if err != nil {
			// Pool closed or overloaded: read inline.
			l.logger.Debug("read-ahead submit failed", "path", desc.Name(), "err", err)
			wg.Done()
			results[i] = l.readOne(desc)
		}
	}
	wg.Wait()
	return results
}

func (l *Loader) readOne(desc core.FileDescriptor) Content {
	text, err := l.read(desc.Locator)
	return Content{Descriptor: desc, Text: text, Err: err}
}

// Release stops the worker pool. The loader must not be used afterwards.
func (l *Loader) Release() {
	if l.pool != nil {
		l.pool.Release()
	}
}
