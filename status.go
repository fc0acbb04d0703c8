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


package embedsync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/embedsync/config"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/ingestion"
)

// DefaultRecentFailures is the number of failures kept in a Status.
const DefaultRecentFailures = 10

// Status summarizes the checkpoint and the event log.
type Status struct {
	Records        int
	Files          int      // distinct files with at least one record
	CompleteFiles  int      // files with every chunk embedded
	PartialFiles   []string // locators missing some chunks
	InvalidRecords int
	Entries        int
	ByStatus       map[core.Status]int
	Runs           int
	RecentFailures []core.LogEntry // newest last
}

// Status reads both stores and summarizes them.
func (s *Syncer) Status(ctx context.Context) (*Status, error) {
	return Summarize(ctx, s.checkpoints, s.events, DefaultRecentFailures)
}

// ReadStatus opens the stores described by cfg and summarizes them without
// contacting the embedding service.
func ReadStatus(ctx context.Context, cfg *config.Config, recent int) (*Status, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	st, err := openStores(cfg, slog.Default().With("component", "embedsync"))
	if err != nil {
		return nil, err
	}
	defer st.close()
	return Summarize(ctx, st.checkpoints, st.events, recent)
}

// checkpointLoader and entryReader are the read halves of the stores.
type checkpointLoader interface {
	LoadCheckpoint(ctx context.Context) ([]*core.EmbeddedRecord, error)
}

type entryReader interface {
	Entries(ctx context.Context) ([]core.LogEntry, error)
}

// Summarize builds a Status keeping the last recent failures. Zero keeps all.
func Summarize(ctx context.Context, checkpoints checkpointLoader, events entryReader, recent int) (*Status, error) {
	records, err := checkpoints.LoadCheckpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	entries, err := events.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}

	all, _ := ingestion.RestoreState(records, ingestion.ResumeAnyChunk)
	_, summary := ingestion.RestoreState(records, ingestion.ResumeComplete)
	partial := append([]string(nil), summary.Partial...)
	sort.Strings(partial)

	st := &Status{
		Records:        all.Len(),
		Files:          summary.Files + len(summary.Partial),
		CompleteFiles:  summary.Files,
		PartialFiles:   partial,
		InvalidRecords: summary.Invalid,
		Entries:        len(entries),
		ByStatus:       make(map[core.Status]int),
	}

	runs := make(map[string]struct{})
	var failures []core.LogEntry
	for _, e := range entries {
		st.ByStatus[e.Status]++
		if e.RunID != "" {
			runs[e.RunID] = struct{}{}
		}
		if e.Status == core.StatusFailed {
			failures = append(failures, e)
		}
	}
	st.Runs = len(runs)
	if recent > 0 && len(failures) > recent {
		failures = failures[len(failures)-recent:]
	}
	st.RecentFailures = failures
	return st, nil
}
