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


package core

import "fmt"

// ValidateDescriptor validates a FileDescriptor.
//
// Validation rules:
//   - Locator must not be empty
//
// DisplayPath and Project are optional.
func ValidateDescriptor(desc FileDescriptor) error {
	if desc.Locator == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDescriptor, ErrEmptyLocator)
	}
	return nil
}

// ValidateRecord validates an EmbeddedRecord according to domain rules.
//
// Validation rules:
//   - SourceLocator must not be empty
//   - ChunkIndex must be in [0, TotalChunks)
//   - Vector must not be empty
func ValidateRecord(record *EmbeddedRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.SourceLocator == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyLocator)
	}

	if record.ChunkIndex < 0 || record.ChunkIndex >= record.TotalChunks {
		return fmt.Errorf("%w: %w: %d of %d", ErrInvalidRecord, ErrChunkIndexOutOfRange,
			record.ChunkIndex, record.TotalChunks)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyVector)
	}

	return nil
}

// ValidateStatus validates that a Status has a known value.
func ValidateStatus(status Status) error {
	switch status {
	case StatusSuccess, StatusFailed, StatusExcluded:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}
