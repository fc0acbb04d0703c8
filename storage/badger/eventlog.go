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


package badger

import (
	"context"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

// EventLog stores entries under sequence-numbered keys.
type EventLog struct {
	backend *Backend
	seq     *badger.Sequence
	mu      sync.Mutex
	closed  bool
}

var _ storage.EventLog = (*EventLog)(nil)

// NewEventLog creates an event log on backend.
// Close releases the sequence lease but leaves the backend open.
func NewEventLog(backend *Backend) (*EventLog, error) {
	seq, err := backend.GetSequence(eventSeq)
	if err != nil {
		return nil, err
	}
	return &EventLog{
		backend: backend,
		seq:     seq,
	}, nil
}

// Append stores entry after all earlier ones.
func (l *EventLog) Append(ctx context.Context, entry core.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateStatus(entry.Status); err != nil {
		return err
	}
	value := storage.MarshalEntry(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return storage.ErrStorageClosed
	}

	n, err := l.seq.Next()
	if err != nil {
		return err
	}

	return l.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEventKey(n), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Entries returns every entry in append order.
func (l *EventLog) Entries(ctx context.Context) ([]core.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []core.LogEntry
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if _, ok := parseEventKey(item.Key()); !ok {
				continue
			}
			err := item.Value(func(val []byte) error {
				entry, err := storage.UnmarshalEntry(val)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return entries, err
}

func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.seq.Release()
}
