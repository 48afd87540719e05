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


package faqit

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/faqit/ai"
	"github.com/poiesic/faqit/ai/openai"
	"github.com/poiesic/faqit/indexer"
	"github.com/poiesic/faqit/search"
	"github.com/poiesic/faqit/server"
	"github.com/poiesic/faqit/storage"
	"github.com/poiesic/faqit/storage/badger"
	"github.com/poiesic/faqit/telemetry"
	"github.com/poiesic/faqit/vectorindex"
	"github.com/poiesic/faqit/vectorindex/qdrant"
)

// ErrEmbedderUnavailable is returned when an operation needs an embedding
// provider but the database was opened with KeywordOnly.
var ErrEmbedderUnavailable = errors.New("embedding provider unavailable")

// Database bundles the corpus store, the embedding provider and the optional
// vector index behind a single handle. It is the embeddable entry point for
// applications that want FAQ search without wiring the packages themselves.
type Database struct {
	backend      *badger.Backend
	entryRepo    storage.EntryRepository
	queryLogRepo storage.QueryLogRepository
	runRepo      storage.RunRepository
	embedder     ai.Embedder
	index        vectorindex.Index
	telemetry    *telemetry.Logger
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig    *ai.Config
	qdrantAddr  string
	collection  string
	keywordOnly bool
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithVectorIndex connects the database to a Qdrant instance. Without this
// option semantic results come from the corpus store alone and searches fall
// back to keyword matching.
func WithVectorIndex(addr, collection string) DatabaseOption {
	return func(o *databaseOptions) {
		o.qdrantAddr = addr
		o.collection = collection
	}
}

// KeywordOnly skips the embedding provider entirely. Searches use keyword
// matching and the indexer is unavailable.
func KeywordOnly() DatabaseOption {
	return func(o *databaseOptions) {
		o.keywordOnly = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	entryRepo, err := badger.NewEntryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	queryLogRepo, err := badger.NewQueryLogRepository(backend)
	if err != nil {
		entryRepo.Close()
		backend.Close()
		return nil, err
	}

	runRepo := badger.NewRunRepository(backend)

	db := &Database{
		backend:      backend,
		entryRepo:    entryRepo,
		queryLogRepo: queryLogRepo,
		runRepo:      runRepo,
		logger:       slog.Default(),
	}

	if !options.keywordOnly {
		embedder, err := openai.NewEmbedder(options.aiConfig)
		if err != nil {
			db.Close()
			return nil, err
		}
		db.embedder = embedder

		if options.qdrantAddr != "" {
			index, err := qdrant.New(options.qdrantAddr, options.collection, options.aiConfig.EmbeddingDims)
			if err != nil {
				db.Close()
				return nil, err
			}
			db.index = index
		}
	}

	tel, err := telemetry.NewLogger(entryRepo, queryLogRepo)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.telemetry = tel

	return db, nil
}

func (db *Database) Close() error {
	// Flush pending telemetry before the repositories go away
	if db.telemetry != nil {
		if err := db.telemetry.Close(); err != nil {
			db.logger.Error("error closing telemetry logger", "err", err)
		}
	}

	if db.index != nil {
		if err := db.index.Close(); err != nil {
			db.logger.Error("error closing vector index", "err", err)
		}
	}

	// Close repositories
	if err := db.runRepo.Close(); err != nil {
		db.logger.Error("error closing run repository", "err", err)
		return err
	}
	if err := db.queryLogRepo.Close(); err != nil {
		db.logger.Error("error closing query log repository", "err", err)
		return err
	}
	if err := db.entryRepo.Close(); err != nil {
		db.logger.Error("error closing entry repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) EntryRepository() storage.EntryRepository {
	return db.entryRepo
}

func (db *Database) QueryLogRepository() storage.QueryLogRepository {
	return db.queryLogRepo
}

func (db *Database) RunRepository() storage.RunRepository {
	return db.runRepo
}

// NewSearchEngine wires a search engine over the database. Telemetry and
// query logging are attached automatically; additional options are applied
// after them.
func (db *Database) NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	engineOpts := append([]search.Option{
		search.WithTelemetry(db.telemetry),
		search.WithQueryLogs(db.queryLogRepo),
	}, opts...)
	return search.NewEngine(db.entryRepo, db.embedder, db.index, engineOpts...)
}

// NewIndexer wires an embedding indexer over the database. Pass nil options
// for the defaults. Progress output goes to the given writer; the indexer
// cmd passes os.Stderr.
func (db *Database) NewIndexer(opts *indexer.Options, progress io.Writer) (*indexer.Indexer, error) {
	if db.embedder == nil {
		return nil, ErrEmbedderUnavailable
	}
	return indexer.NewIndexer(db.entryRepo, db.runRepo, db.embedder, db.index, opts, progress), nil
}

// NewServer wires an HTTP query API over the database.
func (db *Database) NewServer(opts ...server.Option) (*server.Server, error) {
	engine, err := db.NewSearchEngine()
	if err != nil {
		return nil, err
	}
	return server.New(engine, opts...)
}
