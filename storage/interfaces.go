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


package storage

import (
	"context"

	"github.com/poiesic/embedsync/core"
)

// CheckpointRepository persists complete snapshots of embedded records.
// Implementations must be safe for concurrent use.
type CheckpointRepository interface {
	// LoadCheckpoint returns the records of the last saved snapshot.
	// Returns nil, nil if no checkpoint exists.
	// Returns an error wrapping ErrCorruptCheckpoint if the snapshot cannot be decoded.
	LoadCheckpoint(ctx context.Context) ([]*core.EmbeddedRecord, error)

	// SaveCheckpoint replaces the stored snapshot with records.
	// Readers observe either the previous snapshot or the new one, never a mix.
	SaveCheckpoint(ctx context.Context, records []*core.EmbeddedRecord) error
}

// EventLog is the append-only audit trail of per-file and per-chunk outcomes.
// Implementations must be safe for concurrent use.
type EventLog interface {
	// Append durably records one entry after all earlier ones.
	Append(ctx context.Context, entry core.LogEntry) error

	// Entries returns every recorded entry in append order.
	Entries(ctx context.Context) ([]core.LogEntry, error)

	// Close releases resources held by the log.
	Close() error
}
