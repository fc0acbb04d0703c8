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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/embedsync/config"
	"github.com/poiesic/embedsync/storage"
	"github.com/poiesic/embedsync/storage/badger"
	"github.com/poiesic/embedsync/storage/file"
)

// stores holds the checkpoint and event log selected by config.Store.
type stores struct {
	backend     *badger.Backend // nil for the file store
	checkpoints storage.CheckpointRepository
	events      storage.EventLog
	logger      *slog.Logger
}

func openStores(cfg *config.Config, logger *slog.Logger) (*stores, error) {
	st := &stores{logger: logger}

	switch cfg.Store {
	case config.StoreBadger:
		backend, err := badger.OpenBackend(cfg.BadgerDir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		events, err := badger.NewEventLog(backend)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to create event log: %w", err)
		}
		st.backend = backend
		st.events = events
		st.checkpoints = badger.NewCheckpointRepository(backend)
	case config.StoreFile:
		for _, path := range []string{cfg.Checkpoint, cfg.EventLog} {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create directory for %s: %w", path, err)
			}
		}
		events, err := file.OpenEventLog(cfg.EventLog)
		if err != nil {
			return nil, err
		}
		st.events = events
		st.checkpoints = file.NewCheckpointStore(cfg.Checkpoint)
	default:
		return nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
	}
	return st, nil
}

// CheckpointRepository returns the configured checkpoint store.
func (st *stores) CheckpointRepository() storage.CheckpointRepository {
	return st.checkpoints
}

// EventLog returns the configured event log.
func (st *stores) EventLog() storage.EventLog {
	return st.events
}

func (st *stores) close() error {
	var errs []error
	if err := st.events.Close(); err != nil {
		st.logger.Error("error closing event log", "err", err)
		errs = append(errs, err)
	}
	if st.backend != nil {
		if err := st.backend.Close(); err != nil {
			st.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
