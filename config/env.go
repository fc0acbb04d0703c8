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


package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EMBEDSYNC_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from EMBEDSYNC_* variables found by lookup.
// Variable names are the YAML keys in upper case, e.g. EMBEDSYNC_API_KEY.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		"INPUT":           &c.Input,
		"CHECKPOINT":      &c.Checkpoint,
		"EVENT_LOG":       &c.EventLog,
		"STORE":           &c.Store,
		"BADGER_DIR":      &c.BadgerDir,
		"PROVIDER":        &c.Provider,
		"EMBEDDING_HOST":  &c.EmbeddingHost,
		"EMBEDDING_MODEL": &c.EmbeddingModel,
		"API_KEY":         &c.APIKey,
		"RESUME_POLICY":   &c.ResumePolicy,
		"LOG_LEVEL":       &c.LogLevel,
		"LOG_FILE":        &c.LogFile,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DIMENSIONS":          &c.Dimensions,
		"REQUESTS_PER_MINUTE": &c.RequestsPerMinute,
		"TARGET_CHUNK_SIZE":   &c.TargetChunkSize,
		"BATCH_SIZE":          &c.BatchSize,
		"CHECKPOINT_INTERVAL": &c.CheckpointInterval,
		"READ_WORKERS":        &c.ReadWorkers,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"PROBE":              &c.Probe,
		"ABORT_ON_MALFORMED": &c.AbortOnMalformed,
		"BREAKER":            &c.Breaker.Enabled,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}

	if v, ok := lookup(EnvPrefix + "INTER_BATCH_DELAY"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sINTER_BATCH_DELAY: %w", EnvPrefix, err)
		}
		c.InterBatchDelay = d
	}

	if v, ok := lookup(EnvPrefix + "RETRY_BACKOFF"); ok {
		backoff, err := ParseDurations(v)
		if err != nil {
			return fmt.Errorf("%sRETRY_BACKOFF: %w", EnvPrefix, err)
		}
		c.RetryBackoff = backoff
	}
	return nil
}

// ParseDurations parses a comma-separated list such as "1s,4s,10s".
func ParseDurations(s string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
