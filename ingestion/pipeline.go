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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/embedsync/chunker"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/embedding"
	"github.com/poiesic/embedsync/source"
	"github.com/poiesic/embedsync/storage"
)

const (
	// DefaultBatchSize is the number of chunks per embedding call.
	DefaultBatchSize = 5
	// DefaultCheckpointInterval is the number of new records between checkpoint saves.
	DefaultCheckpointInterval = 25
	// DefaultInterBatchDelay is the pause after each successful batch.
	DefaultInterBatchDelay = 2 * time.Second
)

// BatchEmbedder turns a batch of texts into one vector per text.
// embedding.Client is the production implementation.
type BatchEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline orchestrates a resumable chunk-and-embed run.
// A Pipeline runs one Run at a time.
type Pipeline struct {
	client      BatchEmbedder
	checkpoints storage.CheckpointRepository
	events      storage.EventLog
	loader      *source.Loader
	ownsLoader  bool
	splitter    *chunker.Splitter

	batchSize          int
	targetChunkSize    int
	interBatchDelay    time.Duration
	checkpointInterval int
	resumePolicy       ResumePolicy
	abortOnMalformed   bool
	runID              string
	progress           io.Writer
	sleep              func(context.Context, time.Duration) error
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "pipeline")
		return nil
	}
}

// WithBatchSize sets the number of chunks sent per embedding call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size %d", ErrInvalidOption, size)
		}
		p.batchSize = size
		return nil
	}
}

// WithTargetChunkSize sets the maximum chunk length in characters.
// Default is chunker.DefaultTargetSize.
func WithTargetChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: target chunk size %d", ErrInvalidOption, size)
		}
		p.targetChunkSize = size
		return nil
	}
}

// WithSeparators replaces the chunker separators.
func WithSeparators(separators ...string) Option {
	return func(p *Pipeline) error {
		p.splitter = chunker.New(separators...)
		return nil
	}
}

// WithInterBatchDelay sets the pause after each successful batch. Zero disables it.
// Default is DefaultInterBatchDelay.
func WithInterBatchDelay(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			return fmt.Errorf("%w: inter-batch delay %s", ErrInvalidOption, d)
		}
		p.interBatchDelay = d
		return nil
	}
}

// WithCheckpointInterval sets how many new records trigger a checkpoint save.
// Default is DefaultCheckpointInterval.
func WithCheckpointInterval(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("%w: checkpoint interval %d", ErrInvalidOption, n)
		}
		p.checkpointInterval = n
		return nil
	}
}

// WithResumePolicy sets how checkpointed files are recognized as done.
// Default is ResumeComplete.
func WithResumePolicy(policy ResumePolicy) Option {
	return func(p *Pipeline) error {
		if policy != ResumeComplete && policy != ResumeAnyChunk {
			return fmt.Errorf("%w: resume policy %s", ErrInvalidOption, policy)
		}
		p.resumePolicy = policy
		return nil
	}
}

// WithAbortOnMalformed makes Run return an error wrapping
// embedding.ErrMalformedRequest if any batch was rejected as malformed.
// The run still processes every file.
func WithAbortOnMalformed(abort bool) Option {
	return func(p *Pipeline) error {
		p.abortOnMalformed = abort
		return nil
	}
}

// WithRunID tags every event log entry with id.
// Default is a random UUID per pipeline.
func WithRunID(id string) Option {
	return func(p *Pipeline) error {
		p.runID = id
		return nil
	}
}

// WithLoader sets the content loader. The pipeline does not release it.
func WithLoader(loader *source.Loader) Option {
	return func(p *Pipeline) error {
		if loader == nil {
			return fmt.Errorf("%w: nil loader", ErrInvalidOption)
		}
		if p.ownsLoader && p.loader != nil {
			p.loader.Release()
		}
		p.loader = loader
		p.ownsLoader = false
		return nil
	}
}

// WithReadWorkers sets how many files are read ahead concurrently.
// Default is source.DefaultReadWorkers.
func WithReadWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("%w: read workers %d", ErrInvalidOption, n)
		}
		loader, err := source.NewLoader(n)
		if err != nil {
			return err
		}
		if p.ownsLoader && p.loader != nil {
			p.loader.Release()
		}
		p.loader = loader
		p.ownsLoader = true
		return nil
	}
}

// WithProgress writes a progress line to w while running.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithSleep replaces the function used for the inter-batch delay.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(p *Pipeline) error {
		if sleep == nil {
			sleep = embedding.SleepContext
		}
		p.sleep = sleep
		return nil
	}
}

// NewPipeline creates a new pipeline.
func NewPipeline(
	client BatchEmbedder,
	checkpoints storage.CheckpointRepository,
	events storage.EventLog,
	opts ...Option,
) (*Pipeline, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if events == nil {
		return nil, ErrEventLogRequired
	}

	loader, err := source.NewLoader(source.DefaultReadWorkers)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		client:             client,
		checkpoints:        checkpoints,
		events:             events,
		loader:             loader,
		ownsLoader:         true,
		splitter:           chunker.New(),
		batchSize:          DefaultBatchSize,
		targetChunkSize:    chunker.DefaultTargetSize,
		interBatchDelay:    DefaultInterBatchDelay,
		checkpointInterval: DefaultCheckpointInterval,
		resumePolicy:       ResumeComplete,
		runID:              uuid.NewString(),
		sleep:              embedding.SleepContext,
		logger:             slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// RunID returns the identifier written to event log entries.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Release releases the loader if the pipeline created it.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.ownsLoader && p.loader != nil {
		p.loader.Release()
	}
}

// Run processes descriptors in order and returns a summary.
//
// Per-file and per-batch failures are recorded in the event log and do not
// make Run fail. Run returns an error when ctx is cancelled, when a
// checkpoint cannot be saved, or with WithAbortOnMalformed when a batch was
// rejected. The final checkpoint is attempted in every case and the report
// is returned alongside the error.
func (p *Pipeline) Run(ctx context.Context, descriptors []core.FileDescriptor) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: p.runID, Total: len(descriptors)}

	previous, err := p.checkpoints.LoadCheckpoint(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrCorruptCheckpoint) {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		p.logger.Warn("checkpoint unreadable, starting fresh", "err", err)
		previous = nil
	}

	state, summary := RestoreState(previous, p.resumePolicy)
	report.Resumed = summary.Records
	if summary.Invalid > 0 {
		p.logger.Warn("dropped invalid checkpoint records", "count", summary.Invalid)
	}
	if len(summary.Partial) > 0 {
		p.logger.Info("re-embedding partially checkpointed files", "count", len(summary.Partial))
		for _, locator := range summary.Partial {
			p.logger.Debug("partial file", "path", locator)
		}
	}

	pending := p.pendingDescriptors(descriptors, state, report)
	p.logger.Info("starting run",
		"run_id", p.runID,
		"files", len(descriptors),
		"resumed_files", summary.Files,
		"pending", len(pending),
		"resume_policy", p.resumePolicy.String())

	r := &run{
		Pipeline: p,
		state:    state,
		report:   report,
		batch:    newPendingBatch(p.batchSize),
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(pending), 1)
		tracker.Start()
	}

	runErr := p.loader.Each(ctx, pending, func(c source.Content) error {
		defer tracker.Increment(1)
		return r.handle(ctx, c)
	})
	if runErr == nil {
		runErr = r.flush(ctx)
	}
	if runErr != nil && !r.batch.empty() {
		p.logger.Warn("run stopped with unsent chunks", "chunks", len(r.batch.items), "err", runErr)
	}

	// The final save must happen even when ctx is already cancelled.
	if err := r.saveCheckpoint(context.WithoutCancel(ctx)); err != nil {
		runErr = errors.Join(runErr, err)
	}

	tracker.Finish()
	report.Elapsed = time.Since(start)

	if runErr != nil {
		p.logger.Warn("run stopped", "report", report, "err", runErr)
		return report, runErr
	}

	p.logger.Info("run complete", "report", report)
	if p.abortOnMalformed && report.MalformedBatches > 0 {
		return report, fmt.Errorf("%w: %d batches rejected", embedding.ErrMalformedRequest, report.MalformedBatches)
	}
	return report, nil
}

// pendingDescriptors drops files in the resume set and repeated locators.
func (p *Pipeline) pendingDescriptors(descriptors []core.FileDescriptor, state *State, report *Report) []core.FileDescriptor {
	pending := make([]core.FileDescriptor, 0, len(descriptors))
	seen := make(map[string]struct{}, len(descriptors))
	for _, desc := range descriptors {
		if state.Done(desc.Locator) {
			report.Skipped++
			continue
		}
		if _, dup := seen[desc.Locator]; dup {
			report.Duplicates++
			p.logger.Debug("ignoring repeated locator", "path", desc.Name())
			continue
		}
		seen[desc.Locator] = struct{}{}
		pending = append(pending, desc)
	}
	return pending
}

// run holds the mutable state of one Run call.
type run struct {
	*Pipeline
	state           *State
	report          *Report
	batch           *pendingBatch
	sinceCheckpoint int
	delayNext       bool
}

func (r *run) handle(ctx context.Context, c source.Content) error {
	desc := c.Descriptor

	if err := core.ValidateDescriptor(desc); err != nil {
		r.report.ReadFailures++
		r.record(ctx, desc.Name(), core.StatusFailed, core.CodeReadError+": "+err.Error())
		return nil
	}
	if c.Err != nil {
		r.report.ReadFailures++
		r.logger.Warn("unable to read file", "path", desc.Name(), "err", c.Err)
		r.record(ctx, desc.Name(), core.StatusFailed, core.CodeReadError+": "+c.Err.Error())
		return nil
	}

	var chunks []core.TextChunk
	if strings.TrimSpace(c.Text) != "" {
		chunks = r.splitter.Chunks(desc.Locator, c.Text, r.targetChunkSize)
	}
	if len(chunks) == 0 {
		r.report.Excluded++
		r.record(ctx, desc.Name(), core.StatusExcluded, core.CodeEmpty)
		return nil
	}

	r.report.Processed++
	r.report.Chunks += len(chunks)
	for _, chunk := range chunks {
		r.batch.add(desc, chunk)
		if r.batch.full() {
			if err := r.flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// flush sends the pending batch. Embedding failures are recorded and
// swallowed; only cancellation and checkpoint errors are returned.
func (r *run) flush(ctx context.Context) error {
	if r.batch.empty() {
		return nil
	}

	// The delay separates a successful batch from the next call, so nothing
	// waits after the last one.
	if r.delayNext && r.interBatchDelay > 0 {
		if err := r.sleep(ctx, r.interBatchDelay); err != nil {
			return err
		}
	}
	r.delayNext = false

	items := r.batch.items
	vectors, err := r.client.Embed(ctx, r.batch.texts())
	r.report.Batches++

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Unsent chunks are left for the next run.
			return ctxErr
		}

		r.report.FailedBatches++
		r.report.FailedChunks += len(items)
		code := core.CodeNoVector
		if errors.Is(err, embedding.ErrMalformedRequest) {
			r.report.MalformedBatches++
			code = core.CodeMalformed + ": " + err.Error()
		}
		r.logger.Error("batch failed", "chunks", len(items), "code", code, "err", err)
		for _, item := range items {
			r.record(ctx, item.desc.Name(), core.StatusFailed, code)
		}
		r.batch.reset()
		return nil
	}

	for i, item := range items {
		r.state.Add(core.NewEmbeddedRecord(item.desc, item.chunk, vectors[i]))
		r.record(ctx, item.desc.Name(), core.StatusSuccess, core.ChunkCode(item.chunk.Index))
	}
	r.report.Records += len(items)
	r.sinceCheckpoint += len(items)
	r.batch.reset()
	r.delayNext = true

	if r.sinceCheckpoint >= r.checkpointInterval {
		return r.saveCheckpoint(ctx)
	}
	return nil
}

func (r *run) saveCheckpoint(ctx context.Context) error {
	if err := r.checkpoints.SaveCheckpoint(ctx, r.state.Records()); err != nil {
		r.logger.Error("checkpoint save failed", "records", r.state.Len(), "err", err)
		return fmt.Errorf("%w: %w", ErrCheckpointFailed, err)
	}
	r.report.Checkpoints++
	r.sinceCheckpoint = 0
	r.logger.Debug("checkpoint saved", "records", r.state.Len())
	return nil
}

// record appends one outcome to the event log. Append failures are logged
// and counted but do not stop the run.
func (r *run) record(ctx context.Context, path string, status core.Status, code string) {
	entry := core.NewLogEntry(path, status, code)
	entry.RunID = r.runID
	if err := r.events.Append(context.WithoutCancel(ctx), entry); err != nil {
		r.report.LogFailures++
		r.logger.Error("event log append failed", "path", path, "status", status, "err", err)
	}
}
