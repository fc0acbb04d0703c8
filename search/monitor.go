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

import "github.com/poiesic/embedsync/core"

// SearchMonitor receives callbacks at each stage of a search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(dimensions int)
	AfterRecordRetrieval(records []*core.EmbeddedRecord)
	DimensionMismatch(record *core.EmbeddedRecord)
	SemanticHit(record *core.EmbeddedRecord, similarity float32)
	VerbatimHit(record *core.EmbeddedRecord)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)                     {}
func (n *noopMonitor) AfterRecordRetrieval(_ []*core.EmbeddedRecord) {}
func (n *noopMonitor) DimensionMismatch(_ *core.EmbeddedRecord)      {}
func (n *noopMonitor) SemanticHit(_ *core.EmbeddedRecord, _ float32) {}
func (n *noopMonitor) VerbatimHit(_ *core.EmbeddedRecord)            {}
func (n *noopMonitor) Finish(_ []*Result)                            {}
