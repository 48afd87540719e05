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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/faqit/ai"
	"github.com/poiesic/faqit/ai/openai"
	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/indexer"
	"github.com/poiesic/faqit/search"
	"github.com/poiesic/faqit/server"
	"github.com/poiesic/faqit/storage/badger"
	"github.com/poiesic/faqit/telemetry"
	"github.com/poiesic/faqit/vectorindex"
	"github.com/poiesic/faqit/vectorindex/qdrant"
)

func main() {
	app := &cli.App{
		Name:  "faqit",
		Usage: "Hybrid semantic and keyword search over a FAQ corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Generate embeddings for stale entries and upsert them into the vector index",
				Action: indexCommand,
				Flags: append(append(dbFlags(), embeddingFlags()...), append(qdrantFlags(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Regenerate embeddings for every published entry",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries to process (0 = no limit)",
					},
					&cli.Uint64Flag{
						Name:  "resume-from",
						Usage: "Skip entries with an id below this value",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to embed per provider call",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "skip-vector-index",
						Usage: "Write embeddings to the corpus store only",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Compute embeddings but persist nothing",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.Float64Flag{
						Name:  "rate",
						Usage: "Maximum embedding batches per second",
						Value: 2.0,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 10,
					},
				)...),
			},
			{
				Name:      "search",
				Usage:     "Search the FAQ corpus",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(append(dbFlags(), embeddingFlags()...), append(qdrantFlags(),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict results to a category",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum semantic similarity score",
						Value: float64(search.DefaultMinScore),
					},
					&cli.BoolFlag{
						Name:  "keyword-only",
						Usage: "Skip the semantic path and match keywords only",
					},
				)...),
			},
			{
				Name:   "suggested",
				Usage:  "List curated and popular entries for a landing page",
				Action: suggestedCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict results to a category",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 10,
					},
				),
			},
			{
				Name:   "trending",
				Usage:  "List recently active entries",
				Action: trendingCommand,
				Flags: append(dbFlags(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "Activity window in days",
						Value: 7,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 10,
					},
				),
			},
			{
				Name:   "analytics",
				Usage:  "Print aggregated query statistics as JSON",
				Action: analyticsCommand,
				Flags: append(dbFlags(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "Aggregation window in days",
						Value: 7,
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve the query API over HTTP",
				Action: serveCommand,
				Flags: append(append(dbFlags(), embeddingFlags()...), append(qdrantFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
					&cli.BoolFlag{
						Name:  "keyword-only",
						Usage: "Serve without an embedding provider or vector index",
					},
				)...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "dims",
			Usage: "Embedding vector dimension",
			Value: 768,
		},
	}
}

func qdrantFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "qdrant-addr",
			Usage: "Qdrant gRPC address",
			Value: "localhost:6334",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Qdrant collection name",
			Value: "faq_entries",
		},
	}
}

func newEmbedder(c *cli.Context) (ai.Embedder, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDims(c.Int("dims")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return openai.NewEmbedder(aiConfig)
}

func newVectorIndex(c *cli.Context) (*qdrant.Index, error) {
	return qdrant.New(c.String("qdrant-addr"), c.String("collection"), c.Int("dims"))
}

func indexCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	entryRepo, err := badger.NewEntryRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create entry repository: %w", err)
	}
	defer entryRepo.Close()

	runRepo := badger.NewRunRepository(backend)
	defer runRepo.Close()

	embedder, err := newEmbedder(c)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	var index vectorindex.Index
	if !c.Bool("skip-vector-index") {
		qdrantIndex, err := newVectorIndex(c)
		if err != nil {
			return fmt.Errorf("failed to connect to vector index: %w", err)
		}
		defer qdrantIndex.Close()

		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("failed to ensure collection: %w", err)
		}
		index = qdrantIndex
	}

	opts := &indexer.Options{
		ForceAll:         c.Bool("force"),
		Limit:            c.Int("limit"),
		ResumeFromID:     core.ID(c.Uint64("resume-from")),
		BatchSize:        c.Int("batch-size"),
		SkipVectorIndex:  c.Bool("skip-vector-index"),
		DryRun:           c.Bool("dry-run"),
		MaxRetries:       c.Int("max-retries"),
		RetryDelay:       c.Duration("retry-delay"),
		BatchesPerSecond: c.Float64("rate"),
		ReportInterval:   c.Int("report-interval"),
	}
	if opts.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if opts.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	ix := indexer.NewIndexer(entryRepo, runRepo, embedder, index, opts, os.Stderr)
	run, err := ix.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	report, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	fmt.Println(string(report))

	if run.FailureCount > 0 {
		return fmt.Errorf("%d of %d entries failed", run.FailureCount, run.ProcessedEntries)
	}
	return nil
}

// openQueryStack opens the repositories and engine shared by the query
// commands. The returned cleanup closes everything that was opened.
func openQueryStack(c *cli.Context, keywordOnly bool) (*search.Engine, func(), error) {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	entryRepo, err := badger.NewEntryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create entry repository: %w", err)
	}

	queryLogRepo, err := badger.NewQueryLogRepository(backend)
	if err != nil {
		entryRepo.Close()
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create query log repository: %w", err)
	}

	closers := []func() error{queryLogRepo.Close, entryRepo.Close, backend.Close}
	cleanup := func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}

	var (
		embedder ai.Embedder
		index    vectorindex.Index
	)
	if !keywordOnly {
		embedder, err = newEmbedder(c)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
		}

		qdrantIndex, err := newVectorIndex(c)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to vector index: %w", err)
		}
		closers = append([]func() error{qdrantIndex.Close}, closers...)
		index = qdrantIndex
	}

	tel, err := telemetry.NewLogger(entryRepo, queryLogRepo)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create telemetry logger: %w", err)
	}
	closers = append([]func() error{tel.Close}, closers...)

	engine, err := search.NewEngine(entryRepo, embedder, index,
		search.WithTelemetry(tel),
		search.WithQueryLogs(queryLogRepo),
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create search engine: %w", err)
	}

	return engine, cleanup, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	engine, cleanup, err := openQueryStack(c, c.Bool("keyword-only"))
	if err != nil {
		return err
	}
	defer cleanup()

	req := search.NewSearchRequest(query)
	req.Category = c.String("category")
	req.Limit = c.Int("limit")
	req.MinScore = float32(c.Float64("min-score"))
	if c.Bool("keyword-only") {
		req.UseSemanticSearch = false
	}

	resp, err := engine.Search(c.Context, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("search failed: %s", resp.Error)
	}

	fmt.Printf("Found %d hits (%s, %dms)\n", resp.TotalResults, resp.Method, resp.ResponseTimeMs)
	for i, hit := range resp.Results {
		fmt.Printf("%d: [%0.3f] %s (#%d)\n", i+1, hit.Score, hit.Entry.Question, hit.Entry.Id)
	}
	return nil
}

func suggestedCommand(c *cli.Context) error {
	engine, cleanup, err := openQueryStack(c, true)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := engine.Suggested(c.Context, c.String("category"), c.Int("limit"))
	if err != nil {
		return err
	}
	printEntries(entries)
	return nil
}

func trendingCommand(c *cli.Context) error {
	engine, cleanup, err := openQueryStack(c, true)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := engine.Trending(c.Context, c.Int("days"), c.Int("limit"))
	if err != nil {
		return err
	}
	printEntries(entries)
	return nil
}

func analyticsCommand(c *cli.Context) error {
	engine, cleanup, err := openQueryStack(c, true)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := engine.Analytics(c.Context, c.Int("days"))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, cleanup, err := openQueryStack(c, c.Bool("keyword-only"))
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(engine)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(c.String("addr"))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		return srv.Shutdown()
	}
}

func printEntries(entries []*core.KnowledgeEntry) {
	fmt.Printf("Found %d entries\n", len(entries))
	for i, entry := range entries {
		fmt.Printf("%d: %s (#%d, %d views)\n", i+1, entry.Question, entry.Id, entry.Views)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
