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


package reembed

import (
	"context"

	"github.com/poiesic/embedsync/core"
)

const (
	// DefaultBatchSize is the default number of records embedded per request.
	DefaultBatchSize = 5
)

// RecordIterator iterates over checkpoint records in batches.
type RecordIterator struct {
	records   []*core.EmbeddedRecord
	batchSize int
}

// NewRecordIterator creates a new record iterator.
// A non-positive batchSize selects DefaultBatchSize.
func NewRecordIterator(records []*core.EmbeddedRecord, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RecordIterator{
		records:   records,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch in checkpoint order.
// Iteration stops on the first error from fn or on context cancellation,
// which is checked before every batch.
func (it *RecordIterator) ForEach(ctx context.Context, fn func([]*core.EmbeddedRecord) error) error {
	for i := 0; i < len(it.records); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+it.batchSize, len(it.records))
		if err := fn(it.records[i:end]); err != nil {
			return err
		}
	}

	return nil
}
