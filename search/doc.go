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


// Package search ranks checkpointed chunks against a free-text query.
//
// The Searcher embeds the query with the same client used for ingestion and
// scores every checkpoint record by:
//   - cosine similarity between the query vector and the record vector
//   - a verbatim boost when every non-stop word of the query appears in the chunk
//
// Records below the similarity threshold are discarded before boosting.
package search
