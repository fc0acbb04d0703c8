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


// Package reembed replaces the vectors of an existing checkpoint with vectors
// from the current embedding model, without reading the source files again.
//
// Records are embedded in batches from their stored text. When a batch cannot
// be embedded, or a record has no stored text, every record of the affected
// files is dropped from the new snapshot, so the next ingestion run embeds
// those files from source under any resume policy. The checkpoint is replaced
// once, after every batch was tried; an interrupted run leaves it untouched.
package reembed
