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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/embedsync/ingestion"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreBadger = "badger"
)

// BreakerConfig configures the optional circuit breaker in front of the
// embedding service.
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	MaxRequests         uint32        `yaml:"max_requests"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
}

// Config holds every embedsync setting.
type Config struct {
	// Files
	Input      string `yaml:"input"`
	Checkpoint string `yaml:"checkpoint"`
	EventLog   string `yaml:"event_log"`
	Store      string `yaml:"store"`
	BadgerDir  string `yaml:"badger_dir"`

	// Embedding service
	Provider          string          `yaml:"provider"`
	EmbeddingHost     string          `yaml:"embedding_host"`
	EmbeddingModel    string          `yaml:"embedding_model"`
	APIKey            string          `yaml:"api_key"`
	Dimensions        int             `yaml:"dimensions"`
	RequestsPerMinute int             `yaml:"requests_per_minute"`
	RetryBackoff      []time.Duration `yaml:"retry_backoff"`
	Breaker           BreakerConfig   `yaml:"breaker"`
	Probe             bool            `yaml:"probe"`

	// Pipeline
	TargetChunkSize    int           `yaml:"target_chunk_size"`
	BatchSize          int           `yaml:"batch_size"`
	InterBatchDelay    time.Duration `yaml:"inter_batch_delay"`
	CheckpointInterval int           `yaml:"checkpoint_interval"`
	ReadWorkers        int           `yaml:"read_workers"`
	ResumePolicy       string        `yaml:"resume_policy"`
	AbortOnMalformed   bool          `yaml:"abort_on_malformed"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Input:              "codebase_map.json",
		Checkpoint:         "codebase_embeddings.json",
		EventLog:           "sync_log.json",
		Store:              StoreFile,
		BadgerDir:          "embedsync.db",
		Provider:           "openai",
		EmbeddingHost:      "http://localhost:11434/v1",
		EmbeddingModel:     "embeddinggemma",
		RequestsPerMinute:  50,
		RetryBackoff:       []time.Duration{1 * time.Second, 4 * time.Second, 10 * time.Second},
		Probe:              true,
		TargetChunkSize:    8000,
		BatchSize:          5,
		InterBatchDelay:    2 * time.Second,
		CheckpointInterval: 25,
		ReadWorkers:        4,
		ResumePolicy:       "complete",
		LogLevel:           "info",
		Breaker: BreakerConfig{
			ConsecutiveFailures: 5,
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             30 * time.Second,
		},
	}
}

// Load returns DefaultConfig overlaid by the YAML file at path and then by
// the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return nil
}

// Save writes c as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

// Validate reports every out-of-range setting in one error wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Input != "", "input is required")
	switch c.Store {
	case StoreFile:
		check(c.Checkpoint != "", "checkpoint is required for the file store")
		check(c.EventLog != "", "event_log is required for the file store")
	case StoreBadger:
		check(c.BadgerDir != "", "badger_dir is required for the badger store")
	default:
		check(false, "store must be %q or %q, got %q", StoreFile, StoreBadger, c.Store)
	}

	check(c.EmbeddingHost != "", "embedding_host is required")
	check(c.EmbeddingModel != "", "embedding_model is required")
	check(c.Dimensions >= 0, "dimensions must not be negative")
	check(c.RequestsPerMinute >= 0, "requests_per_minute must not be negative")
	check(len(c.RetryBackoff) > 0, "retry_backoff needs at least one delay")
	for i, d := range c.RetryBackoff {
		check(d >= 0, "retry_backoff[%d] must not be negative", i)
	}
	if c.Breaker.Enabled {
		check(c.Breaker.ConsecutiveFailures > 0, "breaker.consecutive_failures must be positive")
		check(c.Breaker.Timeout > 0, "breaker.timeout must be positive")
	}

	check(c.TargetChunkSize > 0, "target_chunk_size must be positive")
	check(c.BatchSize > 0, "batch_size must be positive")
	check(c.InterBatchDelay >= 0, "inter_batch_delay must not be negative")
	check(c.CheckpointInterval > 0, "checkpoint_interval must be positive")
	check(c.ReadWorkers > 0, "read_workers must be positive")
	if _, err := ingestion.ParseResumePolicy(c.ResumePolicy); err != nil {
		check(false, "resume_policy must be \"complete\" or \"any\", got %q", c.ResumePolicy)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		check(false, "log_level: %v", err)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
