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


package search

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/reembed"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a record to be considered.
	DefaultThreshold float32 = 0.60

	// VerbatimBoost is added to the score of records containing every query word.
	VerbatimBoost float32 = 0.3
)

// CheckpointLoader reads the stored snapshot of embedded records.
type CheckpointLoader interface {
	LoadCheckpoint(ctx context.Context) ([]*core.EmbeddedRecord, error)
}

// QueryEmbedder embeds a batch of texts. embedding.Client satisfies it.
type QueryEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one ranked record.
type Result struct {
	Record     *core.EmbeddedRecord
	Similarity float32
	Verbatim   bool
	Score      float32
}

// Searcher ranks checkpoint records against a query.
type Searcher struct {
	checkpoints CheckpointLoader
	embedder    QueryEmbedder
	threshold   float32
	project     string
	logger      *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithThreshold sets the minimum cosine similarity, in [-1, 1].
// Default is DefaultThreshold.
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < -1 || threshold > 1 {
			return ErrInvalidOption
		}
		s.threshold = threshold
		return nil
	}
}

// WithProject restricts results to records of one project.
func WithProject(project string) Option {
	return func(s *Searcher) error {
		s.project = project
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(checkpoints CheckpointLoader, embedder QueryEmbedder, opts ...Option) (*Searcher, error) {
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		checkpoints: checkpoints,
		embedder:    embedder,
		threshold:   DefaultThreshold,
		logger:      slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for records similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*Result, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for records similar to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by relevance score. A non-positive
// maxHits returns every match.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, ErrNoQueryVector
	}
	queryVector := vectors[0]
	monitor.AfterQueryEmbedding(len(queryVector))

	records, err := s.checkpoints.LoadCheckpoint(ctx)
	if err != nil {
		s.logger.Error("error loading checkpoint", "err", err)
		return nil, err
	}
	monitor.AfterRecordRetrieval(records)

	results := make([]*Result, 0)
	mismatched := 0
	for _, record := range records {
		if record == nil || (s.project != "" && record.Project != s.project) {
			continue
		}
		if len(record.Vector) != len(queryVector) {
			mismatched++
			monitor.DimensionMismatch(record)
			continue
		}

		similarity := reembed.CosineSimilarity(queryVector, record.Vector)
		if similarity < s.threshold {
			continue
		}
		monitor.SemanticHit(record, similarity)

		result := &Result{Record: record, Similarity: similarity, Score: similarity}
		if containsAllQueryWords(record.Text, query) {
			result.Verbatim = true
			result.Score += VerbatimBoost
			monitor.VerbatimHit(record)
		}
		results = append(results, result)
	}
	if mismatched > 0 {
		s.logger.Warn("skipped records with a different vector dimension", "count", mismatched, "dimensions", len(queryVector))
	}

	// Sort by score descending, then by position for a stable order
	slices.SortStableFunc(results, func(a, b *Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Record.SourceLocator, b.Record.SourceLocator); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ChunkIndex, b.Record.ChunkIndex)
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
