package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords(locator string, total int) []*core.EmbeddedRecord {
	records := make([]*core.EmbeddedRecord, total)
	for i := range records {
		records[i] = &core.EmbeddedRecord{
			ID:            locator,
			SourceLocator: locator,
			Project:       "app",
			DisplayPath:   filepath.Base(locator),
			Text:          "chunk",
			ChunkIndex:    i,
			TotalChunks:   total,
			Vector:        []float32{float32(i), 1},
		}
	}
	return records
}

func TestCheckpointStore_LoadMissing(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "codebase_embeddings.json"))

	records, err := store.LoadCheckpoint(context.Background())

	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestCheckpointStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "codebase_embeddings.json")
	store := NewCheckpointStore(path)
	ctx := context.Background()

	first := testRecords("/src/a.go", 2)
	require.NoError(t, store.SaveCheckpoint(ctx, first))

	loaded, err := store.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	// A save replaces the whole snapshot.
	second := append(testRecords("/src/a.go", 2), testRecords("/src/b.go", 1)...)
	require.NoError(t, store.SaveCheckpoint(ctx, second))

	loaded, err = store.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
}

func TestCheckpointStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointStore(filepath.Join(dir, "cp.json"))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveCheckpoint(context.Background(), testRecords("/src/a.go", i+1)))
	}

	names, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, names)

	info, err := os.Stat(filepath.Join(dir, "cp.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestCheckpointStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"full_path": "/a", "embedding": [0.1`), 0o644))
	store := NewCheckpointStore(path)

	_, err := store.LoadCheckpoint(context.Background())

	assert.ErrorIs(t, err, storage.ErrCorruptCheckpoint)
}

func TestCheckpointStore_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.json")
	other := flock.New(path + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	store := NewCheckpointStore(path, WithLockWait(100*time.Millisecond))
	err = store.SaveCheckpoint(context.Background(), testRecords("/src/a.go", 1))

	assert.ErrorIs(t, err, storage.ErrLocked)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing is written without the lock")
}

func TestCheckpointStore_CanceledContext(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "cp.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.LoadCheckpoint(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
