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


// Package ingestion orchestrates a resumable chunk-and-embed run.
//
// A Pipeline walks an ordered list of file descriptors, skips files already
// present in the previous checkpoint, reads and chunks the rest, and sends
// chunks to the embedding client in fixed-size batches. Chunks of one file
// may span batches.
//
// Every terminal outcome is appended to the event log:
//   - SUCCESS CHUNK_<i> for each embedded chunk
//   - FAIL API_ERROR_NO_VECTOR for each chunk of a batch that exhausted retries
//   - FAIL MALFORMED_REQUEST: <reason> for each chunk of a rejected batch
//   - FAIL READ_ERROR: <reason> for unreadable files
//   - EXCLUDED EMPTY for files without content
//
// Failed batches do not stop the run. The checkpoint is saved periodically
// and once more when the run ends, including on cancellation.
package ingestion
