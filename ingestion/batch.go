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


package ingestion

import "github.com/poiesic/embedsync/core"

// pendingChunk is a chunk waiting for its embedding.
type pendingChunk struct {
	desc  core.FileDescriptor
	chunk core.TextChunk
}

// pendingBatch accumulates chunks until it holds capacity of them.
// Chunks of one file may span batches.
type pendingBatch struct {
	items    []pendingChunk
	capacity int
}

func newPendingBatch(capacity int) *pendingBatch {
	return &pendingBatch{
		items:    make([]pendingChunk, 0, capacity),
		capacity: capacity,
	}
}

func (b *pendingBatch) add(desc core.FileDescriptor, chunk core.TextChunk) {
	b.items = append(b.items, pendingChunk{desc: desc, chunk: chunk})
}

func (b *pendingBatch) full() bool {
	return len(b.items) >= b.capacity
}

func (b *pendingBatch) empty() bool {
	return len(b.items) == 0
}

func (b *pendingBatch) texts() []string {
	texts := make([]string, len(b.items))
	for i, item := range b.items {
		texts[i] = item.chunk.Text
	}
	return texts
}

func (b *pendingBatch) reset() {
	b.items = b.items[:0]
}
