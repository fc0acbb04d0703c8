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
	"fmt"
	"sync"

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

// CheckpointStore keeps the checkpoint snapshot in a single JSON file.
type CheckpointStore struct {
	path string
	opts options
	mu   sync.Mutex
}

var _ storage.CheckpointRepository = (*CheckpointStore)(nil)

// NewCheckpointStore creates a store for the snapshot at path.
// The file is created on the first save.
func NewCheckpointStore(path string, opts ...Option) *CheckpointStore {
	return &CheckpointStore{
		path: path,
		opts: newOptions("file-checkpoint", opts),
	}
}

// Path returns the snapshot file path.
func (s *CheckpointStore) Path() string {
	return s.path
}

// LoadCheckpoint reads the snapshot. Returns nil, nil if the file does not exist.
func (s *CheckpointStore) LoadCheckpoint(ctx context.Context) ([]*core.EmbeddedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}
	if data == nil {
		return nil, nil
	}

	records, err := storage.UnmarshalRecords(data)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", s.path, err)
	}
	return records, nil
}

// SaveCheckpoint atomically replaces the snapshot with records.
func (s *CheckpointStore) SaveCheckpoint(ctx context.Context, records []*core.EmbeddedRecord) error {
	data, err := storage.MarshalRecords(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockFile(ctx, s.path, s.opts.lockWait)
	if err != nil {
		return err
	}
	defer unlock()

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", s.path, err)
	}
	s.opts.logger.Debug("checkpoint saved", "path", s.path, "records", len(records))
	return nil
}
