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


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/embedsync"
	"github.com/poiesic/embedsync/config"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/ingestion"
	"github.com/poiesic/embedsync/search"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "embedsync",
		Usage: "Chunk source files and embed them with resumable checkpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"EMBEDSYNC_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write JSON logs to this file",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Embed every file of the descriptor map that is not checkpointed yet",
				Action: runCommand,
				Flags: append(append(storeFlags(), embeddingFlags()...),
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Descriptor map produced by the scanner",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks sent per embedding request",
					},
					&cli.IntFlag{
						Name:  "target-chunk-size",
						Usage: "Maximum chunk length in characters",
					},
					&cli.DurationFlag{
						Name:  "inter-batch-delay",
						Usage: "Pause between successful batches",
					},
					&cli.IntFlag{
						Name:  "checkpoint-interval",
						Usage: "Save the checkpoint every N new records",
					},
					&cli.IntFlag{
						Name:  "read-workers",
						Usage: "Number of files read ahead concurrently",
					},
					&cli.StringFlag{
						Name:  "resume-policy",
						Usage: "Which checkpointed files are skipped (complete, any)",
					},
					&cli.BoolFlag{
						Name:  "abort-on-malformed",
						Usage: "Exit with an error if any batch was rejected as malformed",
					},
					&cli.BoolFlag{
						Name:  "no-probe",
						Usage: "Skip the startup connectivity probe",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Print progress to stderr",
						Value: true,
					},
				),
			},
			{
				Name:   "status",
				Usage:  "Summarize the checkpoint and the event log",
				Action: statusCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "failures",
						Usage: "Number of recent failures to show",
						Value: embedsync.DefaultRecentFailures,
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Replace every checkpoint vector using the configured model",
				Action: reembedCommand,
				Flags: append(append(storeFlags(), embeddingFlags()...),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records sent per embedding request",
					},
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "Scale new vectors to unit length",
					},
					&cli.BoolFlag{
						Name:  "no-probe",
						Usage: "Skip the startup connectivity probe",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Rank checkpointed chunks against a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(append(storeFlags(), embeddingFlags()...),
					&cli.IntFlag{
						Name:    "max-hits",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "project",
						Usage: "Only return chunks of this project",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity",
						Value: float64(search.DefaultThreshold),
					},
				),
			},
		},
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding client implementation (openai, goopenai)",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.IntFlag{
			Name:  "rpm",
			Usage: "Maximum embedding requests per minute (0 disables limiting)",
		},
		&cli.BoolFlag{
			Name:  "breaker",
			Usage: "Enable the circuit breaker in front of the embedding service",
		},
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "store",
			Usage: "Storage backend (file, badger)",
		},
		&cli.StringFlag{
			Name:  "checkpoint",
			Usage: "Checkpoint file for the file store",
		},
		&cli.StringFlag{
			Name:  "event-log",
			Usage: "Event log file for the file store",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory for the badger store",
		},
	}
}

// setup loads the configuration and installs the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", cfg.LogLevel)
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, level)
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[configKey] = cfg
	c.App.Metadata["cleanup"] = cleanup
	return nil
}

func teardown(c *cli.Context) error {
	if cleanup, ok := c.App.Metadata["cleanup"].(func() error); ok {
		return cleanup()
	}
	return nil
}

// loadConfig returns the configuration prepared by setup with the command's
// flags applied on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}

	setString := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	setInt := func(flag string, dst *int) {
		if c.IsSet(flag) {
			*dst = c.Int(flag)
		}
	}

	setString("store", &cfg.Store)
	setString("checkpoint", &cfg.Checkpoint)
	setString("event-log", &cfg.EventLog)
	setString("db", &cfg.BadgerDir)
	if c.IsSet("db") && !c.IsSet("store") {
		cfg.Store = config.StoreBadger
	}

	setString("input", &cfg.Input)
	setString("provider", &cfg.Provider)
	setString("embedding-host", &cfg.EmbeddingHost)
	setString("embedding-model", &cfg.EmbeddingModel)
	setString("resume-policy", &cfg.ResumePolicy)
	setInt("rpm", &cfg.RequestsPerMinute)
	setInt("batch-size", &cfg.BatchSize)
	setInt("target-chunk-size", &cfg.TargetChunkSize)
	setInt("checkpoint-interval", &cfg.CheckpointInterval)
	setInt("read-workers", &cfg.ReadWorkers)
	if c.IsSet("inter-batch-delay") {
		cfg.InterBatchDelay = c.Duration("inter-batch-delay")
	}
	if c.IsSet("abort-on-malformed") {
		cfg.AbortOnMalformed = c.Bool("abort-on-malformed")
	}
	if c.IsSet("breaker") {
		cfg.Breaker.Enabled = c.Bool("breaker")
	}
	if c.Bool("no-probe") {
		cfg.Probe = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	syncer, err := embedsync.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer syncer.Close()

	var opts []ingestion.Option
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Input: %s\n", cfg.Input)
	fmt.Fprintf(w, "Store: %s\n", describeStore(cfg))
	fmt.Fprintf(w, "Embedding: %s %s (%s)\n", cfg.Provider, cfg.EmbeddingModel, cfg.EmbeddingHost)
	fmt.Fprintln(w)

	report, err := syncer.Sync(ctx, opts...)
	if report != nil {
		printReport(w, report)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("interrupted, progress saved: %w", err)
		}
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	syncer, err := embedsync.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer syncer.Close()

	fmt.Fprintf(c.App.Writer, "Store: %s\n", describeStore(cfg))
	fmt.Fprintf(c.App.Writer, "Embedding: %s %s (%s)\n", cfg.Provider, cfg.EmbeddingModel, cfg.EmbeddingHost)

	result, err := syncer.Reembed(ctx, c.Bool("normalize"), c.App.ErrWriter)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("interrupted, checkpoint unchanged: %w", err)
		}
		return fmt.Errorf("reembedding failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Reembedded %d of %d records (%d dropped from %d files, %d without text) in %s\n",
		result.Reembedded, result.Records, result.Dropped, result.DroppedFiles, result.Skipped, result.Elapsed.Round(time.Millisecond))
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Probe = false

	syncer, err := embedsync.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer syncer.Close()

	opts := []search.Option{search.WithThreshold(float32(c.Float64("threshold")))}
	if c.IsSet("project") {
		opts = append(opts, search.WithProject(c.String("project")))
	}

	results, err := syncer.Search(c.Context, query, c.Int("max-hits"), opts...)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(c.App.Writer, results)
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	status, err := embedsync.ReadStatus(context.WithoutCancel(c.Context), cfg, c.Int("failures"))
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	printStatus(c.App.Writer, describeStore(cfg), status)
	return nil
}

func describeStore(cfg *config.Config) string {
	if cfg.Store == config.StoreBadger {
		return "badger " + cfg.BadgerDir
	}
	return fmt.Sprintf("file %s, %s", cfg.Checkpoint, cfg.EventLog)
}

func printReport(w io.Writer, r *ingestion.Report) {
	fmt.Fprintf(w, "Run %s finished in %s\n", r.RunID, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Files: %d total, %d skipped, %d processed, %d excluded, %d unreadable\n",
		r.Total, r.Skipped, r.Processed, r.Excluded, r.ReadFailures)
	fmt.Fprintf(w, "  Chunks: %d embedded, %d failed\n", r.Records, r.FailedChunks)
	fmt.Fprintf(w, "  Batches: %d sent, %d failed (%d malformed)\n", r.Batches, r.FailedBatches, r.MalformedBatches)
	fmt.Fprintf(w, "  Checkpoints: %d\n", r.Checkpoints)
}

func printResults(w io.Writer, results []*search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found")
		return
	}
	for i, r := range results {
		marker := ""
		if r.Verbatim {
			marker = " (verbatim)"
		}
		fmt.Fprintf(w, "%2d. %.3f %s [%s] chunk %d/%d%s\n",
			i+1, r.Score, r.Record.DisplayPath, r.Record.Project, r.Record.ChunkIndex+1, r.Record.TotalChunks, marker)
		fmt.Fprintf(w, "    %s\n", snippet(r.Record.Text, 120))
	}
}

// snippet returns the first line of text, cut to at most n runes.
func snippet(text string, n int) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if runes := []rune(text); len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return text
}

func printStatus(w io.Writer, store string, s *embedsync.Status) {
	fmt.Fprintf(w, "Store: %s\n", store)
	fmt.Fprintf(w, "Records: %d in %d files (%d complete, %d partial)\n",
		s.Records, s.Files, s.CompleteFiles, len(s.PartialFiles))
	if s.InvalidRecords > 0 {
		fmt.Fprintf(w, "Invalid records: %d\n", s.InvalidRecords)
	}
	for _, path := range s.PartialFiles {
		fmt.Fprintf(w, "  partial: %s\n", path)
	}
	fmt.Fprintf(w, "Events: %d over %d runs (SUCCESS %d, FAIL %d, EXCLUDED %d)\n",
		s.Entries, s.Runs, s.ByStatus[core.StatusSuccess], s.ByStatus[core.StatusFailed], s.ByStatus[core.StatusExcluded])
	if len(s.RecentFailures) > 0 {
		fmt.Fprintln(w, "Recent failures:")
		for _, e := range s.RecentFailures {
			fmt.Fprintf(w, "  %s %s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Path, e.Code)
		}
	}
}
