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


package reembed

import (
	"context"
	"fmt"

	"github.com/poiesic/embedsync/core"
)

// BatchEmbedder embeds a batch of texts, returning one vector per text in order.
// embedding.Client satisfies it.
type BatchEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// BatchProcessor embeds a batch of records from their stored text.
type BatchProcessor struct {
	embedder  BatchEmbedder
	normalize bool
}

// NewBatchProcessor creates a new batch processor.
// normalize: scale every new vector to unit length
func NewBatchProcessor(embedder BatchEmbedder, normalize bool) *BatchProcessor {
	return &BatchProcessor{
		embedder:  embedder,
		normalize: normalize,
	}
}

// Process returns copies of records carrying the new vectors.
// The input records are not modified.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.EmbeddedRecord) ([]*core.EmbeddedRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}

	embeddings, err := bp.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(embeddings) != len(records) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(embeddings))
	}

	updated := make([]*core.EmbeddedRecord, len(records))
	for i, record := range records {
		vector := embeddings[i]
		if bp.normalize {
			vector = NormalizeVector(vector)
		}
		copied := *record
		copied.Vector = vector
		updated[i] = &copied
	}

	return updated, nil
}
