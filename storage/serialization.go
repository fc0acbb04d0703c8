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
	"encoding/json"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/embedsync/core"
)

const jsonIndent = "  "

// MarshalRecords serializes a checkpoint snapshot as an indented JSON array.
// A nil slice is written as an empty array.
func MarshalRecords(records []*core.EmbeddedRecord) ([]byte, error) {
	if records == nil {
		records = []*core.EmbeddedRecord{}
	}
	data, err := json.MarshalIndent(records, "", jsonIndent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRecords decodes a checkpoint snapshot.
// Decoding failures wrap ErrCorruptCheckpoint.
func UnmarshalRecords(data []byte) ([]*core.EmbeddedRecord, error) {
	var records []*core.EmbeddedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCheckpoint, err)
	}
	return records, nil
}

// MarshalEntries serializes event log entries as an indented JSON array.
func MarshalEntries(entries []core.LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []core.LogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", jsonIndent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalEntries decodes a JSON array of event log entries.
// Decoding failures wrap ErrCorruptLog.
func UnmarshalEntries(data []byte) ([]core.LogEntry, error) {
	var entries []core.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptLog, err)
	}
	return entries, nil
}

// snapshotMUS encodes a checkpoint snapshot for the Badger store.
var snapshotMUS = ord.NewSliceSer[core.EmbeddedRecord](core.EmbeddedRecordMUS)

// MarshalSnapshot serializes a checkpoint snapshot in MUS format.
// Nil records are skipped.
func MarshalSnapshot(records []*core.EmbeddedRecord) []byte {
	values := make([]core.EmbeddedRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			values = append(values, *r)
		}
	}
	buf := make([]byte, snapshotMUS.Size(values))
	snapshotMUS.Marshal(values, buf)
	return buf
}

// UnmarshalSnapshot decodes a MUS checkpoint snapshot.
// Decoding failures wrap ErrCorruptCheckpoint.
func UnmarshalSnapshot(data []byte) ([]*core.EmbeddedRecord, error) {
	values, n, err := snapshotMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCheckpoint, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptCheckpoint, len(data)-n)
	}
	records := make([]*core.EmbeddedRecord, len(values))
	for i := range values {
		records[i] = &values[i]
	}
	return records, nil
}

// MarshalEntry serializes a single event log entry in MUS format.
func MarshalEntry(entry core.LogEntry) []byte {
	buf := make([]byte, core.LogEntryMUS.Size(entry))
	core.LogEntryMUS.Marshal(entry, buf)
	return buf
}

// UnmarshalEntry decodes a single MUS event log entry.
// Timestamps come back in UTC.
func UnmarshalEntry(data []byte) (core.LogEntry, error) {
	entry, n, err := core.LogEntryMUS.Unmarshal(data)
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("%w: %w", ErrCorruptLog, err)
	}
	if n != len(data) {
		return core.LogEntry{}, fmt.Errorf("%w: %d trailing bytes", ErrCorruptLog, len(data)-n)
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return entry, nil
}
