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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDescriptor indicates a FileDescriptor failed validation.
	ErrInvalidDescriptor = errors.New("invalid file descriptor")

	// ErrInvalidRecord indicates an EmbeddedRecord failed validation.
	ErrInvalidRecord = errors.New("invalid embedded record")

	// ErrEmptyLocator indicates the source locator is empty.
	ErrEmptyLocator = errors.New("source locator cannot be empty")

	// ErrChunkIndexOutOfRange indicates a chunk index outside [0, total).
	ErrChunkIndexOutOfRange = errors.New("chunk index out of range")

	// ErrEmptyVector indicates a record without an embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrInvalidStatus indicates an unknown log status.
	ErrInvalidStatus = errors.New("invalid log status")

	// ErrInvalidTimestamp indicates a log timestamp in no known layout.
	ErrInvalidTimestamp = errors.New("invalid log timestamp")
)
