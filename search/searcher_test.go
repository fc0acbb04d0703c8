package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embedFunc func(ctx context.Context, texts []string) ([][]float32, error)

func (f embedFunc) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}

// fixedEmbedder returns vector for every query.
func fixedEmbedder(vector []float32) embedFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = vector
		}
		return out, nil
	}
}

func record(locator, project, text string, index int, vector ...float32) *core.EmbeddedRecord {
	return &core.EmbeddedRecord{
		ID:            locator,
		SourceLocator: locator,
		DisplayPath:   locator,
		Project:       project,
		Text:          text,
		ChunkIndex:    index,
		TotalChunks:   index + 1,
		Vector:        vector,
	}
}

func setupCheckpoint(t *testing.T, records ...*core.EmbeddedRecord) *badger.CheckpointRepository {
	t.Helper()
	checkpoints, events, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		events.Close()
		backend.Close()
	})
	require.NoError(t, checkpoints.SaveCheckpoint(t.Context(), records))
	return checkpoints
}

type stubLoader struct {
	err error
}

func (s stubLoader) LoadCheckpoint(context.Context) ([]*core.EmbeddedRecord, error) {
	return nil, s.err
}

func TestNewSearcher(t *testing.T) {
	checkpoints := setupCheckpoint(t)
	embedder := fixedEmbedder([]float32{1, 0})

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(checkpoints, embedder)
		require.NoError(t, err)
		assert.Equal(t, DefaultThreshold, searcher.threshold)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(checkpoints, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.Equal(t, slog.Default(), searcher.logger)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := NewSearcher(checkpoints, embedder, WithThreshold(1.5))
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("nil checkpoint repository", func(t *testing.T) {
		_, err := NewSearcher(nil, embedder)
		assert.Equal(t, ErrCheckpointRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(checkpoints, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestFindSimilar_EmptyCheckpoint(t *testing.T) {
	searcher, err := NewSearcher(setupCheckpoint(t), fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(t.Context(), "test query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_RanksBySimilarity(t *testing.T) {
	checkpoints := setupCheckpoint(t,
		record("/a.go", "demo", "artificial intelligence", 0, 0.9, 0.1, 0.0),
		record("/b.go", "demo", "machine learning", 0, 0.85, 0.15, 0.0),
		record("/c.go", "demo", "cooking recipes", 0, 0.1, 0.1, 0.8),
	)

	searcher, err := NewSearcher(checkpoints, fixedEmbedder([]float32{0.88, 0.12, 0.0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(t.Context(), "neural networks", 10)
	require.NoError(t, err)
	require.Len(t, results, 2, "the cooking record is below the threshold")
	assert.Equal(t, "/a.go", results[0].Record.SourceLocator)
	assert.Equal(t, "/b.go", results[1].Record.SourceLocator)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.False(t, results[0].Verbatim)
}

func TestFindSimilar_VerbatimBoost(t *testing.T) {
	checkpoints := setupCheckpoint(t,
		record("/a.go", "demo", "func parseConfig() error", 0, 1, 0),
		record("/b.go", "demo", "The retry loop backs off exponentially.", 0, 0.8, 0.6),
	)

	searcher, err := NewSearcher(checkpoints, fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(t.Context(), "the Retry loop", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "/b.go", results[0].Record.SourceLocator)
	assert.True(t, results[0].Verbatim)
	assert.InDelta(t, 0.8+VerbatimBoost, results[0].Score, 1e-5)
	assert.InDelta(t, 1.0, results[1].Score, 1e-5)
}

func TestFindSimilar_MaxHitsAndTies(t *testing.T) {
	checkpoints := setupCheckpoint(t,
		record("/b.go", "demo", "x", 1, 1, 0),
		record("/a.go", "demo", "x", 0, 1, 0),
		record("/b.go", "demo", "x", 0, 1, 0),
	)

	searcher, err := NewSearcher(checkpoints, fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(t.Context(), "query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/a.go", results[0].Record.SourceLocator)
	assert.Equal(t, "/b.go", results[1].Record.SourceLocator)
	assert.Equal(t, 0, results[1].Record.ChunkIndex)

	all, err := searcher.FindSimilar(t.Context(), "query", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFindSimilar_ProjectAndThreshold(t *testing.T) {
	checkpoints := setupCheckpoint(t,
		record("/a.go", "one", "x", 0, 1, 0),
		record("/b.go", "two", "x", 0, 0, 1),
	)

	searcher, err := NewSearcher(checkpoints, fixedEmbedder([]float32{1, 0}), WithProject("two"), WithThreshold(-1))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(t.Context(), "query", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/b.go", results[0].Record.SourceLocator)
	assert.InDelta(t, 0.0, results[0].Similarity, 1e-6)
}

func TestFindSimilar_SkipsDimensionMismatch(t *testing.T) {
	checkpoints := setupCheckpoint(t,
		record("/a.go", "demo", "x", 0, 1, 0),
		record("/b.go", "demo", "x", 0, 1, 0, 0),
	)

	monitor := &recordingMonitor{}
	searcher, err := NewSearcher(checkpoints, fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilarWithMonitor(t.Context(), "query", 10, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"/b.go"}, monitor.mismatched)
	assert.Equal(t, 2, monitor.dimensions)
	assert.Equal(t, 2, monitor.retrieved)
	assert.Len(t, monitor.finished, 1)
}

func TestFindSimilar_Errors(t *testing.T) {
	checkpoints := setupCheckpoint(t)

	t.Run("empty query", func(t *testing.T) {
		searcher, err := NewSearcher(checkpoints, fixedEmbedder([]float32{1}))
		require.NoError(t, err)
		_, err = searcher.FindSimilar(t.Context(), "  \n", 10)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("embedder failure", func(t *testing.T) {
		boom := errors.New("service down")
		searcher, err := NewSearcher(checkpoints, embedFunc(func(context.Context, []string) ([][]float32, error) {
			return nil, boom
		}))
		require.NoError(t, err)
		_, err = searcher.FindSimilar(t.Context(), "query", 10)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no vector", func(t *testing.T) {
		searcher, err := NewSearcher(checkpoints, embedFunc(func(context.Context, []string) ([][]float32, error) {
			return nil, nil
		}))
		require.NoError(t, err)
		_, err = searcher.FindSimilar(t.Context(), "query", 10)
		assert.ErrorIs(t, err, ErrNoQueryVector)
	})

	t.Run("checkpoint failure", func(t *testing.T) {
		boom := errors.New("unreadable")
		searcher, err := NewSearcher(stubLoader{err: boom}, fixedEmbedder([]float32{1}))
		require.NoError(t, err)
		_, err = searcher.FindSimilar(t.Context(), "query", 10)
		assert.ErrorIs(t, err, boom)
	})
}

func TestContainsAllQueryWords(t *testing.T) {
	assert.True(t, containsAllQueryWords("// Embed sends texts to the *Client.", "client embed"))
	assert.True(t, containsAllQueryWords("Retry, then give up.", "the retry"))
	assert.False(t, containsAllQueryWords("retry loop", "retry backoff"))
	assert.False(t, containsAllQueryWords("anything", "the a an"), "only stop words")
}

type recordingMonitor struct {
	noopMonitor
	dimensions int
	retrieved  int
	mismatched []string
	finished   []*Result
}

func (m *recordingMonitor) AfterQueryEmbedding(dimensions int) {
	m.dimensions = dimensions
}

func (m *recordingMonitor) AfterRecordRetrieval(records []*core.EmbeddedRecord) {
	m.retrieved = len(records)
}

func (m *recordingMonitor) DimensionMismatch(record *core.EmbeddedRecord) {
	m.mismatched = append(m.mismatched, record.SourceLocator)
}

func (m *recordingMonitor) Finish(results []*Result) {
	m.finished = results
}
