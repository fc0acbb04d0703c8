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
	"io"

	"github.com/poiesic/embedsync/reembed"
	"github.com/poiesic/embedsync/search"
)

// Reembed replaces every checkpoint vector with one from the configured
// model. Records whose batch fails are dropped so the next Sync embeds their
// files again.
func (s *Syncer) Reembed(ctx context.Context, normalize bool, progress io.Writer) (*reembed.Result, error) {
	if s.cfg.Probe {
		if err := s.Probe(ctx); err != nil {
			return nil, err
		}
	}

	r, err := reembed.NewReembedder(s.checkpoints, s.events, s.client, &reembed.Config{
		BatchSize: s.cfg.BatchSize,
		Normalize: normalize,
	}, progress)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// Search ranks the checkpointed chunks against query.
func (s *Syncer) Search(ctx context.Context, query string, maxHits int, opts ...search.Option) ([]*search.Result, error) {
	searcher, err := search.NewSearcher(s.checkpoints, s.client, append([]search.Option{search.WithLogger(s.logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return searcher.FindSimilar(ctx, query, maxHits)
}
