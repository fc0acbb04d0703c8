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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

// EventLog keeps the event log in a single JSON array file. Each append
// re-reads the file under the lock and rewrites it whole, so entries appended
// by other processes are preserved.
type EventLog struct {
	path   string
	opts   options
	mu     sync.Mutex
	closed bool
}

var _ storage.EventLog = (*EventLog)(nil)

// OpenEventLog opens the log at path. A missing file is created on the first append.
func OpenEventLog(path string, opts ...Option) (*EventLog, error) {
	if path == "" {
		return nil, errors.New("event log path is required")
	}
	return &EventLog{
		path: path,
		opts: newOptions("file-eventlog", opts),
	}, nil
}

// Path returns the log file path.
func (l *EventLog) Path() string {
	return l.path
}

// Append adds entry to the end of the log.
// An existing file that cannot be decoded is discarded and the log restarts.
func (l *EventLog) Append(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateStatus(entry.Status); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return storage.ErrStorageClosed
	}

	unlock, err := lockFile(ctx, l.path, l.opts.lockWait)
	if err != nil {
		return err
	}
	defer unlock()

	entries, err := l.read()
	if errors.Is(err, storage.ErrCorruptLog) {
		l.opts.logger.Warn("discarding corrupt event log", "path", l.path, "err", err)
		entries, err = nil, nil
	}
	if err != nil {
		return err
	}

	data, err := storage.MarshalEntries(append(entries, entry))
	if err != nil {
		return err
	}
	if err := writeFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("write event log %s: %w", l.path, err)
	}
	return nil
}

// Entries returns every entry in append order.
func (l *EventLog) Entries(ctx context.Context) ([]core.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, storage.ErrStorageClosed
	}
	return l.read()
}

func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *EventLog) read() ([]core.LogEntry, error) {
	data, err := readFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read event log %s: %w", l.path, err)
	}
	if data == nil {
		return nil, nil
	}
	return storage.UnmarshalEntries(data)
}
