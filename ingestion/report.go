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

import (
	"fmt"
	"log/slog"
	"time"
)

// Report summarizes one run.
type Report struct {
	RunID            string
	Total            int // descriptors given to Run
	Resumed          int // records restored from the checkpoint
	Skipped          int // files skipped because they are in the resume set
	Duplicates       int // repeated locators ignored
	Processed        int // files chunked
	Excluded         int // files without content
	ReadFailures     int
	Chunks           int
	Batches          int // embedding calls made
	FailedBatches    int // includes malformed batches
	MalformedBatches int
	Records          int // records added by this run
	FailedChunks     int
	Checkpoints      int
	LogFailures      int // event log appends that failed
	Elapsed          time.Duration
}

// Succeeded reports whether every attempted batch produced vectors.
func (r *Report) Succeeded() bool {
	return r.FailedBatches == 0 && r.ReadFailures == 0
}

// String returns a one-line summary.
func (r *Report) String() string {
	return fmt.Sprintf("%d files (%d skipped, %d processed, %d excluded, %d unreadable), %d/%d chunks embedded, %d/%d batches failed, %d checkpoints in %s",
		r.Total, r.Skipped, r.Processed, r.Excluded, r.ReadFailures,
		r.Records, r.Chunks, r.FailedBatches, r.Batches, r.Checkpoints,
		r.Elapsed.Round(time.Millisecond))
}

// LogValue implements slog.LogValuer.
func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", r.RunID),
		slog.Int("total", r.Total),
		slog.Int("resumed", r.Resumed),
		slog.Int("skipped", r.Skipped),
		slog.Int("processed", r.Processed),
		slog.Int("excluded", r.Excluded),
		slog.Int("read_failures", r.ReadFailures),
		slog.Int("chunks", r.Chunks),
		slog.Int("batches", r.Batches),
		slog.Int("failed_batches", r.FailedBatches),
		slog.Int("malformed_batches", r.MalformedBatches),
		slog.Int("records", r.Records),
		slog.Int("failed_chunks", r.FailedChunks),
		slog.Int("checkpoints", r.Checkpoints),
		slog.Duration("elapsed", r.Elapsed),
	)
}
