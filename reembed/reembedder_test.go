package reembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/embedding"
	"github.com/poiesic/embedsync/ingestion"
	"github.com/poiesic/embedsync/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStores(t *testing.T, records []*core.EmbeddedRecord) (*badger.CheckpointRepository, *badger.EventLog) {
	t.Helper()
	checkpoints, events, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		events.Close()
		backend.Close()
	})
	require.NoError(t, checkpoints.SaveCheckpoint(t.Context(), records))
	return checkpoints, events
}

func TestNewReembedder_Requires(t *testing.T) {
	checkpoints, events := setupStores(t, nil)

	_, err := NewReembedder(nil, events, &mockEmbedder{}, nil, nil)
	assert.ErrorIs(t, err, ErrCheckpointRepositoryRequired)

	_, err = NewReembedder(checkpoints, events, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	r, err := NewReembedder(checkpoints, nil, &mockEmbedder{}, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID())
}

func TestReembedder_Run(t *testing.T) {
	checkpoints, events := setupStores(t, makeRecords(10))

	var buf bytes.Buffer
	embedder := &mockEmbedder{}
	r, err := NewReembedder(checkpoints, events, embedder, &Config{BatchSize: 3, Normalize: true}, &buf)
	require.NoError(t, err)

	result, err := r.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Records)
	assert.Equal(t, 10, result.Reembedded)
	assert.Equal(t, 4, result.Batches)
	assert.Zero(t, result.FailedBatches)
	assert.Len(t, embedder.requests, 4)

	stored, err := checkpoints.LoadCheckpoint(t.Context())
	require.NoError(t, err)
	require.Len(t, stored, 10)
	for i, record := range stored {
		assert.Equal(t, fmt.Sprintf("content %d", i), record.Text, "order is preserved")
		assert.InDelta(t, 1.0, Magnitude(record.Vector), 0.01)
		assert.InDelta(t, 2.0/3.0, record.Vector[1], 0.01)
	}

	entries, err := events.Entries(t.Context())
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Contains(t, buf.String(), "Starting reembedding of 10 records")
	assert.Contains(t, buf.String(), "Reembedding complete")
}

func TestReembedder_EmptyCheckpoint(t *testing.T) {
	checkpoints, events := setupStores(t, nil)

	var buf bytes.Buffer
	embedder := &mockEmbedder{}
	r, err := NewReembedder(checkpoints, events, embedder, nil, &buf)
	require.NoError(t, err)

	result, err := r.Run(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Records)
	assert.Empty(t, embedder.requests)
	assert.Contains(t, buf.String(), "No records found")
}

func TestReembedder_FailedBatchIsDropped(t *testing.T) {
	checkpoints, events := setupStores(t, makeRecords(5))

	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			if slices.Contains(texts, "content 1") {
				return nil, fmt.Errorf("%w: service down", embedding.ErrRetriesExhausted)
			}
			return [][]float32{{1, 0}, {0, 1}}[:len(texts)], nil
		},
	}
	r, err := NewReembedder(checkpoints, events, embedder, &Config{BatchSize: 2}, nil)
	require.NoError(t, err)

	result, err := r.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Reembedded)
	assert.Equal(t, 2, result.Dropped)
	assert.Equal(t, 1, result.FailedBatches)

	stored, err := checkpoints.LoadCheckpoint(t.Context())
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "content 2", stored[0].Text)

	entries, err := events.Entries(t.Context())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, core.StatusFailed, e.Status)
		assert.Equal(t, core.CodeNoVector, e.Code)
		assert.Equal(t, r.RunID(), e.RunID)
	}
	assert.Equal(t, "file0.go", entries[0].Path)
	assert.Equal(t, "file1.go", entries[1].Path)
}

func chunkedFile(name string, total int) []*core.EmbeddedRecord {
	locator := "/src/" + name
	records := make([]*core.EmbeddedRecord, total)
	for i := range total {
		records[i] = &core.EmbeddedRecord{
			ID:            locator,
			SourceLocator: locator,
			DisplayPath:   name,
			Project:       "demo",
			Text:          fmt.Sprintf("%s chunk %d", name, i),
			ChunkIndex:    i,
			TotalChunks:   total,
			Vector:        []float32{0.5, 0.5},
		}
	}
	return records
}

func TestReembedder_FailedChunkDropsWholeFile(t *testing.T) {
	records := append(chunkedFile("a.go", 3), chunkedFile("b.go", 1)...)
	checkpoints, events := setupStores(t, records)

	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			if slices.Contains(texts, "a.go chunk 1") {
				return nil, fmt.Errorf("%w: service down", embedding.ErrRetriesExhausted)
			}
			return [][]float32{{1, 0}, {0, 1}}[:len(texts)], nil
		},
	}
	r, err := NewReembedder(checkpoints, events, embedder, &Config{BatchSize: 2}, nil)
	require.NoError(t, err)

	result, err := r.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedBatches)
	assert.Equal(t, 1, result.Reembedded)
	assert.Equal(t, 3, result.Dropped)
	assert.Equal(t, 1, result.DroppedFiles)

	stored, err := checkpoints.LoadCheckpoint(t.Context())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "/src/b.go", stored[0].SourceLocator)

	for _, policy := range []ingestion.ResumePolicy{ingestion.ResumeAnyChunk, ingestion.ResumeComplete} {
		state, _ := ingestion.RestoreState(stored, policy)
		assert.False(t, state.Done("/src/a.go"), "policy %v", policy)
		assert.True(t, state.Done("/src/b.go"), "policy %v", policy)
	}
}

func TestReembedder_MissingTextDropsWholeFile(t *testing.T) {
	records := append(chunkedFile("a.go", 2), chunkedFile("b.go", 2)...)
	records[0].Text = ""
	checkpoints, events := setupStores(t, records)

	r, err := NewReembedder(checkpoints, events, &mockEmbedder{}, nil, nil)
	require.NoError(t, err)

	result, err := r.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 2, result.Reembedded)

	stored, err := checkpoints.LoadCheckpoint(t.Context())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, record := range stored {
		assert.Equal(t, "/src/b.go", record.SourceLocator)
	}
}

func TestReembedder_MalformedBatchCode(t *testing.T) {
	checkpoints, events := setupStores(t, makeRecords(1))

	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, fmt.Errorf("%w: input too long", embedding.ErrMalformedRequest)
		},
	}
	r, err := NewReembedder(checkpoints, events, embedder, nil, nil)
	require.NoError(t, err)

	_, err = r.Run(t.Context())
	require.NoError(t, err)

	entries, err := events.Entries(t.Context())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Code, core.CodeMalformed+": "), entries[0].Code)
}

func TestReembedder_SkipsRecordsWithoutText(t *testing.T) {
	records := makeRecords(3)
	records[1].Text = ""
	checkpoints, events := setupStores(t, records)

	r, err := NewReembedder(checkpoints, events, &mockEmbedder{}, nil, nil)
	require.NoError(t, err)

	result, err := r.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Reembedded)

	stored, err := checkpoints.LoadCheckpoint(t.Context())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestReembedder_CancellationLeavesCheckpoint(t *testing.T) {
	records := makeRecords(4)
	checkpoints, events := setupStores(t, records)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	calls := 0
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			calls++
			if calls == 2 {
				cancel()
				return nil, ctx.Err()
			}
			return [][]float32{{9, 9}, {9, 9}}, nil
		},
	}
	r, err := NewReembedder(checkpoints, events, embedder, &Config{BatchSize: 2}, nil)
	require.NoError(t, err)

	result, err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Reembedded)
	assert.Zero(t, result.FailedBatches)

	stored, err := checkpoints.LoadCheckpoint(t.Context())
	require.NoError(t, err)
	require.Len(t, stored, 4)
	for _, record := range stored {
		assert.Equal(t, []float32{0.5, 0.5}, record.Vector)
	}

	entries, err := events.Entries(t.Context())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
