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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/embedding"
	"github.com/poiesic/embedsync/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to embed in each request
	BatchSize int

	// Normalize scales new vectors to unit length
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize: DefaultBatchSize,
	}
}

// Result summarizes one reembedding run.
type Result struct {
	RunID         string
	Records       int // records in the checkpoint before the run
	Reembedded    int
	Dropped       int // records removed because they or a sibling chunk failed
	DroppedFiles  int // files with at least one removed or skipped chunk
	Skipped       int // records without stored text
	Batches       int
	FailedBatches int
	Elapsed       time.Duration
}

// Reembedder replaces every vector of a checkpoint.
type Reembedder struct {
	checkpoints storage.CheckpointRepository
	events      storage.EventLog
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	logger      *slog.Logger
	runID       string
}

// NewReembedder creates a new reembedder.
// events may be nil, in which case dropped records are only logged.
// progress: where to write progress output (typically os.Stderr), may be nil
func NewReembedder(checkpoints storage.CheckpointRepository, events storage.EventLog, embedder BatchEmbedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		checkpoints: checkpoints,
		events:      events,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(embedder, config.Normalize),
		logger:      slog.Default().With("component", "reembedder"),
		runID:       uuid.NewString(),
	}, nil
}

// RunID returns the identifier stamped on event log entries of this reembedder.
func (r *Reembedder) RunID() string {
	return r.runID
}

// Run reembeds every checkpoint record and saves the new snapshot.
// On cancellation the stored checkpoint is left as it was and the context's
// error is returned with the partial result.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: r.runID}

	records, err := r.checkpoints.LoadCheckpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	result.Records = len(records)

	if len(records) == 0 {
		fmt.Fprintf(r.progress, "No records found in checkpoint (0 records)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d records (batch size: %d)\n",
		len(records), r.config.BatchSize)

	// Files that lose any chunk are removed whole so that no resume policy
	// treats them as done.
	lost := make(map[string]struct{})

	embeddable := make([]*core.EmbeddedRecord, 0, len(records))
	for _, record := range records {
		if record == nil || record.Text == "" {
			result.Skipped++
			if record != nil {
				lost[record.SourceLocator] = struct{}{}
			}
			continue
		}
		embeddable = append(embeddable, record)
	}
	if result.Skipped > 0 {
		r.logger.Warn("dropping records without stored text", "count", result.Skipped)
	}

	kept := make([]*core.EmbeddedRecord, 0, len(embeddable))
	err = NewRecordIterator(embeddable, r.config.BatchSize).ForEach(ctx, func(batch []*core.EmbeddedRecord) error {
		result.Batches++
		updated, err := r.processor.Process(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			result.FailedBatches++
			result.Dropped += len(batch)
			r.logger.Warn("dropping records of failed batch", "records", len(batch), "err", err)
			for _, record := range batch {
				lost[record.SourceLocator] = struct{}{}
				r.record(ctx, record, core.StatusFailed, failureCode(err))
			}
			return nil
		}

		kept = append(kept, updated...)
		result.Reembedded += len(updated)
		fmt.Fprintf(r.progress, "\rReembedded %d/%d records", result.Reembedded+result.Dropped, len(embeddable))
		return nil
	})
	result.Elapsed = time.Since(start)
	fmt.Fprintln(r.progress)

	if err != nil {
		r.logger.Warn("reembedding interrupted, checkpoint unchanged", "err", err)
		return result, err
	}

	if len(lost) > 0 {
		kept = r.dropFiles(kept, lost, result)
	}

	if err := r.checkpoints.SaveCheckpoint(context.WithoutCancel(ctx), kept); err != nil {
		return result, fmt.Errorf("failed to save checkpoint: %w", err)
	}
	result.Elapsed = time.Since(start)

	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d records in %v (%.1f records/sec)\n",
		result.Reembedded, result.Elapsed.Round(time.Millisecond), float64(result.Reembedded)/max(result.Elapsed.Seconds(), 1e-9))
	r.logger.Info("reembedding complete",
		"records", result.Records,
		"reembedded", result.Reembedded,
		"dropped", result.Dropped,
		"dropped_files", result.DroppedFiles,
		"skipped", result.Skipped)

	return result, nil
}

// dropFiles removes every record whose file is in lost.
func (r *Reembedder) dropFiles(records []*core.EmbeddedRecord, lost map[string]struct{}, result *Result) []*core.EmbeddedRecord {
	whole := records[:0]
	siblings := 0
	for _, record := range records {
		if _, ok := lost[record.SourceLocator]; ok {
			siblings++
			continue
		}
		whole = append(whole, record)
	}
	result.Reembedded -= siblings
	result.Dropped += siblings
	result.DroppedFiles = len(lost)
	if siblings > 0 {
		r.logger.Warn("dropping remaining chunks of incomplete files", "records", siblings, "files", len(lost))
	}
	return whole
}

func (r *Reembedder) record(ctx context.Context, record *core.EmbeddedRecord, status core.Status, code string) {
	if r.events == nil {
		return
	}
	path := record.DisplayPath
	if path == "" {
		path = record.SourceLocator
	}
	entry := core.NewLogEntry(path, status, code)
	entry.RunID = r.runID
	if err := r.events.Append(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Error("failed to append event", "path", path, "err", err)
	}
}

func failureCode(err error) string {
	if errors.Is(err, embedding.ErrMalformedRequest) {
		return core.CodeMalformed + ": " + err.Error()
	}
	return core.CodeNoVector
}
