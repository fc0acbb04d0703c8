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
	"strings"

	"github.com/poiesic/embedsync/core"
)

// ResumePolicy decides which files of a previous checkpoint count as done.
type ResumePolicy int

const (
	// ResumeComplete treats a file as done only when every chunk index in
	// [0, total) is present. Records of incomplete files are dropped and the
	// file is embedded again.
	ResumeComplete ResumePolicy = iota
	// ResumeAnyChunk treats a file as done as soon as any of its chunks is present.
	ResumeAnyChunk
)

func (p ResumePolicy) String() string {
	switch p {
	case ResumeComplete:
		return "complete"
	case ResumeAnyChunk:
		return "any"
	default:
		return fmt.Sprintf("ResumePolicy(%d)", int(p))
	}
}

// ParseResumePolicy parses "complete" or "any". An empty string is ResumeComplete.
func ParseResumePolicy(s string) (ResumePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "complete":
		return ResumeComplete, nil
	case "any", "any-chunk", "anychunk":
		return ResumeAnyChunk, nil
	default:
		return 0, fmt.Errorf("%w: unknown resume policy %q", ErrInvalidOption, s)
	}
}

// State is the accumulated set of embedded records plus the resume set.
// It is owned by the goroutine running the pipeline.
type State struct {
	records []*core.EmbeddedRecord
	index   map[core.ID]int
	done    map[string]struct{}
}

// ResumeSummary describes what was recovered from a checkpoint.
type ResumeSummary struct {
	Records int      // records kept
	Files   int      // files in the resume set
	Partial []string // locators whose records were dropped as incomplete
	Invalid int      // records dropped because they failed validation
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		index: make(map[core.ID]int),
		done:  make(map[string]struct{}),
	}
}

// RestoreState rebuilds the state from a checkpoint snapshot under policy.
// Invalid records are dropped; a later record for the same chunk replaces an
// earlier one.
func RestoreState(records []*core.EmbeddedRecord, policy ResumePolicy) (*State, ResumeSummary) {
	var summary ResumeSummary

	byFile := make(map[string][]*core.EmbeddedRecord)
	var order []string
	for _, r := range records {
		if err := core.ValidateRecord(r); err != nil {
			summary.Invalid++
			continue
		}
		if _, seen := byFile[r.SourceLocator]; !seen {
			order = append(order, r.SourceLocator)
		}
		byFile[r.SourceLocator] = append(byFile[r.SourceLocator], r)
	}

	s := NewState()
	for _, locator := range order {
		fileRecords := byFile[locator]
		if policy == ResumeComplete && !complete(fileRecords) {
			summary.Partial = append(summary.Partial, locator)
			continue
		}
		s.Add(fileRecords...)
		s.done[locator] = struct{}{}
	}

	summary.Records = len(s.records)
	summary.Files = len(s.done)
	return s, summary
}

// complete reports whether records cover every chunk index of one file.
func complete(records []*core.EmbeddedRecord) bool {
	total := records[0].TotalChunks
	seen := make(map[int]struct{}, total)
	for _, r := range records {
		if r.TotalChunks != total {
			return false
		}
		seen[r.ChunkIndex] = struct{}{}
	}
	return len(seen) == total
}

// Add appends records, replacing any existing record for the same chunk.
func (s *State) Add(records ...*core.EmbeddedRecord) {
	for _, r := range records {
		key := r.Key()
		if i, ok := s.index[key]; ok {
			s.records[i] = r
			continue
		}
		s.index[key] = len(s.records)
		s.records = append(s.records, r)
	}
}

// Done reports whether locator is in the resume set.
func (s *State) Done(locator string) bool {
	_, ok := s.done[locator]
	return ok
}

// Len returns the number of records.
func (s *State) Len() int {
	return len(s.records)
}

// Records returns a snapshot of the records in insertion order.
func (s *State) Records() []*core.EmbeddedRecord {
	out := make([]*core.EmbeddedRecord, len(s.records))
	copy(out, s.records)
	return out
}
