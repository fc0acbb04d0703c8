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

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FileDescriptor identifies one input unit produced by the external scanner.
// The JSON shape matches the scanner's file map.
type FileDescriptor struct {
	Locator     string `json:"full_path"` // Where the content is read from
	DisplayPath string `json:"rel_path"`  // Human readable path used in logs and records
	Project     string `json:"project"`
	Ext         string `json:"ext,omitempty"`
}

// Name returns the path used for logging, falling back to the locator.
func (d FileDescriptor) Name() string {
	if d.DisplayPath != "" {
		return d.DisplayPath
	}
	return d.Locator
}

// TextChunk is one slice of a file's content.
// Index is 0-based and contiguous within Total.
type TextChunk struct {
	SourceLocator string
	Index         int
	Total         int
	Text          string
}

// EmbeddedRecord is a chunk plus its embedding vector.
// The JSON shape is the checkpoint interchange format read by the uploader.
type EmbeddedRecord struct {
	ID            string    `json:"id"` // Same as SourceLocator
	SourceLocator string    `json:"full_path"`
	Project       string    `json:"project"`
	DisplayPath   string    `json:"path"`
	Text          string    `json:"content"`
	ChunkIndex    int       `json:"chunk_index"`
	TotalChunks   int       `json:"total_chunks"`
	Vector        []float32 `json:"embedding"` // float64 checkpoint values are narrowed on load
}

// NewEmbeddedRecord attaches a vector to a chunk of the given file.
func NewEmbeddedRecord(desc FileDescriptor, chunk TextChunk, vector []float32) *EmbeddedRecord {
	return &EmbeddedRecord{
		ID:            desc.Locator,
		SourceLocator: desc.Locator,
		Project:       desc.Project,
		DisplayPath:   desc.Name(),
		Text:          chunk.Text,
		ChunkIndex:    chunk.Index,
		TotalChunks:   chunk.Total,
		Vector:        vector,
	}
}

// Key returns a content-derived identifier for the (locator, chunk index) pair.
func (r *EmbeddedRecord) Key() ID {
	return IDFromContent(r.SourceLocator + "#" + strconv.Itoa(r.ChunkIndex))
}

// Status is the terminal outcome recorded in the event log.
type Status string

const (
	// StatusSuccess marks a chunk that obtained a vector.
	StatusSuccess Status = "SUCCESS"
	// StatusFailed marks a chunk or file that could not be embedded.
	StatusFailed Status = "FAIL"
	// StatusExcluded marks a file skipped on purpose (e.g. empty content).
	StatusExcluded Status = "EXCLUDED"
)

// Event log codes.
const (
	CodeEmpty       = "EMPTY"
	CodeNoVector    = "API_ERROR_NO_VECTOR"
	CodeReadError   = "READ_ERROR"
	CodeMalformed   = "MALFORMED_REQUEST"
	SystemInitPath  = "SYSTEM_INIT"
	chunkCodePrefix = "CHUNK_"
)

// ChunkCode returns the success code for the chunk at index.
func ChunkCode(index int) string {
	return chunkCodePrefix + strconv.Itoa(index)
}

// LogEntry records one terminal outcome of a chunk or file.
// Entries are append-only and never mutated.
type LogEntry struct {
	Path      string    `json:"file"`
	Status    Status    `json:"status"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id,omitempty"`
}

// NewLogEntry creates an entry stamped with the current time.
func NewLogEntry(path string, status Status, code string) LogEntry {
	return LogEntry{
		Path:      path,
		Status:    status,
		Code:      code,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// timestampLayouts are tried in order when decoding a LogEntry. Logs written
// by the scanner scripts carry local timestamps without a zone offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an event log timestamp. Values without a zone offset
// are read as local time.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// UnmarshalJSON decodes an entry, accepting timestamps with or without a
// zone offset. A missing timestamp decodes as the zero time.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	type plain LogEntry
	var aux struct {
		plain
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	entry := LogEntry(aux.plain)
	entry.Timestamp = time.Time{}
	if aux.Timestamp != "" {
		ts, err := ParseTimestamp(aux.Timestamp)
		if err != nil {
			return err
		}
		entry.Timestamp = ts
	}
	*e = entry
	return nil
}
