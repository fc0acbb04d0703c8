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


// Package file implements the storage interfaces on plain JSON files.
//
// The checkpoint is a JSON array of embedded records (codebase_embeddings.json)
// and the event log a JSON array of entries (sync_log.json), the formats read
// by the downstream uploader. Every write produces a complete file in a
// temporary sibling, fsyncs it and renames it over the target, so a crash
// leaves either the old or the new content. Writers hold an advisory lock on
// "<path>.lock" while reading and replacing a file.
package file
