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


// Package chunker splits source text into size-bounded chunks for embedding.
//
// Splitting is recursive over a prioritized list of separators: paragraph
// breaks first, then line breaks, then spaces. A strategy is accepted only if
// every chunk it produces fits the target size; at the word level oversized
// chunks are chopped into fixed-width slices instead. If no separator works,
// the whole text is sliced at fixed width, so splitting always terminates with
// bounded chunks even for input without any whitespace.
//
// Sizes are measured in characters (runes), not bytes.
package chunker
