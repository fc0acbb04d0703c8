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

	"github.com/poiesic/embedsync/ai"
	"github.com/poiesic/embedsync/ai/goopenai"
	"github.com/poiesic/embedsync/ai/openai"
	"github.com/poiesic/embedsync/config"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/embedding"
	"github.com/poiesic/embedsync/ingestion"
	"github.com/poiesic/embedsync/ratelimit"
	"github.com/poiesic/embedsync/source"
)

// Syncer wires the stores, the embedding service and the pipeline described
// by a config.Config.
type Syncer struct {
	*stores
	cfg      *config.Config
	provider ai.AIProvider
	limiter  *ratelimit.Limiter
	client   *embedding.Client
	logger   *slog.Logger
}

// Option configures a Syncer.
type Option func(*syncerOptions)

type syncerOptions struct {
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the configuration.
// The Syncer closes it on Close.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *syncerOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *syncerOptions) {
		o.logger = logger
	}
}

// New validates cfg and opens everything it describes.
//
// A provider that cannot be built is an initialization failure: it is
// recorded in the event log as SYSTEM_INIT FAIL and the error wraps
// embedding.ErrInitialization.
func New(cfg *config.Config, opts ...Option) (*Syncer, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &syncerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	s := &Syncer{
		cfg:    cfg,
		logger: options.logger.With("component", "embedsync"),
	}

	st, err := openStores(cfg, s.logger)
	if err != nil {
		return nil, err
	}
	s.stores = st

	provider := options.provider
	if provider == nil {
		provider, err = newProvider(cfg)
		if err != nil {
			err = fmt.Errorf("%w: %w", embedding.ErrInitialization, err)
			s.recordInitFailure(err)
			s.stores.close()
			return nil, err
		}
	}
	s.provider = provider

	s.limiter = ratelimit.New(cfg.RequestsPerMinute)

	clientOpts := []embedding.Option{
		embedding.WithBackoff(cfg.RetryBackoff...),
		embedding.WithLogger(options.logger.With("component", "embedding-client")),
	}
	if cfg.Breaker.Enabled {
		settings := embedding.DefaultBreakerSettings()
		settings.ConsecutiveFailures = cfg.Breaker.ConsecutiveFailures
		settings.Timeout = cfg.Breaker.Timeout
		settings.Interval = cfg.Breaker.Interval
		if cfg.Breaker.MaxRequests > 0 {
			settings.MaxRequests = cfg.Breaker.MaxRequests
		}
		clientOpts = append(clientOpts, embedding.WithBreaker(settings))
	}

	client, err := embedding.NewClient(provider.Embedder(), s.limiter, clientOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client

	s.logger.Debug("syncer ready",
		"store", cfg.Store,
		"provider", provider.Name(),
		"model", cfg.EmbeddingModel,
		"rpm", cfg.RequestsPerMinute,
		"max_attempts", client.MaxAttempts())
	return s, nil
}

func newProvider(cfg *config.Config) (ai.AIProvider, error) {
	aiConfig := ai.NewConfig(
		ai.WithProvider(cfg.Provider),
		ai.WithEmbeddingHost(cfg.EmbeddingHost),
		ai.WithEmbeddingModel(cfg.EmbeddingModel),
		ai.WithAPIKey(cfg.APIKey),
		ai.WithDimensions(cfg.Dimensions),
	)
	aiConfig.Normalize()

	switch aiConfig.Provider {
	case ai.ProviderOpenAI:
		return openai.NewProvider(aiConfig)
	case ai.ProviderGoOpenAI:
		return goopenai.NewProvider(aiConfig)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// recordInitFailure appends the SYSTEM_INIT entry for err.
func (s *Syncer) recordInitFailure(err error) {
	s.logger.Error("initialization failed", "err", err)
	if s.stores == nil {
		return
	}
	entry := core.NewLogEntry(core.SystemInitPath, core.StatusFailed, err.Error())
	if appendErr := s.events.Append(context.Background(), entry); appendErr != nil {
		s.logger.Error("event log append failed", "path", core.SystemInitPath, "err", appendErr)
	}
}

// Probe checks the embedding service with one short request.
// A failure is recorded as SYSTEM_INIT FAIL and wraps embedding.ErrInitialization.
func (s *Syncer) Probe(ctx context.Context) error {
	err := s.client.Probe(ctx)
	if err != nil && ctx.Err() == nil {
		s.recordInitFailure(err)
	}
	return err
}

// NewPipeline creates a pipeline configured from the Syncer's settings.
// opts are applied after the configured ones. The caller releases it.
func (s *Syncer) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	policy, err := ingestion.ParseResumePolicy(s.cfg.ResumePolicy)
	if err != nil {
		return nil, err
	}

	base := []ingestion.Option{
		ingestion.WithLogger(s.logger),
		ingestion.WithReadWorkers(s.cfg.ReadWorkers),
		ingestion.WithBatchSize(s.cfg.BatchSize),
		ingestion.WithTargetChunkSize(s.cfg.TargetChunkSize),
		ingestion.WithInterBatchDelay(s.cfg.InterBatchDelay),
		ingestion.WithCheckpointInterval(s.cfg.CheckpointInterval),
		ingestion.WithResumePolicy(policy),
		ingestion.WithAbortOnMalformed(s.cfg.AbortOnMalformed),
	}
	return ingestion.NewPipeline(s.client, s.checkpoints, s.events, append(base, opts...)...)
}

// Run probes the service when configured to, then embeds descriptors.
func (s *Syncer) Run(ctx context.Context, descriptors []core.FileDescriptor, opts ...ingestion.Option) (*ingestion.Report, error) {
	if s.cfg.Probe {
		if err := s.Probe(ctx); err != nil {
			return nil, err
		}
	}

	pipeline, err := s.NewPipeline(opts...)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	return pipeline.Run(ctx, descriptors)
}

// Sync loads the configured descriptor map and runs it.
func (s *Syncer) Sync(ctx context.Context, opts ...ingestion.Option) (*ingestion.Report, error) {
	descriptors, err := source.LoadDescriptors(s.cfg.Input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded descriptor map", "path", s.cfg.Input, "files", len(descriptors))
	return s.Run(ctx, descriptors, opts...)
}

// Config returns the configuration the Syncer was built from.
func (s *Syncer) Config() *config.Config {
	return s.cfg
}

// Client returns the embedding client.
func (s *Syncer) Client() *embedding.Client {
	return s.client
}

// Close closes the provider and the stores.
func (s *Syncer) Close() error {
	if s.provider != nil {
		// Close AI provider first
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
		}
	}
	return s.stores.close()
}
