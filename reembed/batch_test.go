package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/embedsync/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbedder for testing
type mockEmbedder struct {
	embedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	requests  [][]string
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.requests = append(m.requests, texts)
	if m.embedFunc != nil {
		return m.embedFunc(ctx, texts)
	}
	// Default: return unnormalized vectors for each text
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1.0, 2.0, 2.0} // magnitude = 3.0
	}
	return result, nil
}

func TestBatchProcessor_Process(t *testing.T) {
	records := makeRecords(2)
	embedder := &mockEmbedder{}

	updated, err := NewBatchProcessor(embedder, false).Process(t.Context(), records)
	require.NoError(t, err)
	require.Len(t, updated, 2)

	assert.Equal(t, [][]string{{"content 0", "content 1"}}, embedder.requests)
	for i, record := range updated {
		assert.Equal(t, []float32{1, 2, 2}, record.Vector)
		assert.Equal(t, records[i].SourceLocator, record.SourceLocator)
		assert.Equal(t, records[i].Text, record.Text)
	}
	assert.Equal(t, []float32{0.5, 0.5}, records[0].Vector, "input records are not modified")
}

func TestBatchProcessor_Normalize(t *testing.T) {
	updated, err := NewBatchProcessor(&mockEmbedder{}, true).Process(t.Context(), makeRecords(3))
	require.NoError(t, err)

	for _, record := range updated {
		assert.InDelta(t, 1.0, Magnitude(record.Vector), 0.01, "vector should be normalized")
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	embedder := &mockEmbedder{}
	updated, err := NewBatchProcessor(embedder, false).Process(t.Context(), []*core.EmbeddedRecord{})
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.Empty(t, embedder.requests)
}

func TestBatchProcessor_EmbedError(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("service down")
		},
	}

	_, err := NewBatchProcessor(embedder, false).Process(t.Context(), makeRecords(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service down")
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		},
	}

	_, err := NewBatchProcessor(embedder, false).Process(t.Context(), makeRecords(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}
