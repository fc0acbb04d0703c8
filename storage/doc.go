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


// Package storage defines where the pipeline keeps its durable state: the
// checkpoint of embedded records and the append-only event log.
//
// Two backends implement the interfaces:
//
//   - storage/file: JSON files compatible with the downstream uploader
//     (codebase_embeddings.json, sync_log.json), written atomically and
//     guarded by advisory file locks
//   - storage/badger: a BadgerDB database, useful when several tools share
//     one state directory or the event log grows large
//
// Both backends serialize values with the JSON codec in this package, so a
// checkpoint can be exported from one backend and read by the other.
//
// # Usage
//
//	checkpoints := file.NewCheckpointStore("codebase_embeddings.json")
//	events, err := file.OpenEventLog("sync_log.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer events.Close()
//
// Use in tests with in-memory storage:
//
//	checkpoints, events, backend, err := badger.NewMemoryStores()
//
// # Context Support
//
// All methods accept context.Context. Operations check it before touching
// disk; a write that has started always completes so snapshots stay whole.
package storage
