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

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/poiesic/faqit/ai"
	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
	"github.com/poiesic/faqit/telemetry"
	"github.com/poiesic/faqit/vectorindex"
)

const (
	// DefaultLimit is the default maximum number of results
	DefaultLimit = 20

	// DefaultMinScore is the default semantic similarity threshold
	DefaultMinScore = 0.7
)

// SearchRequest describes one search call.
type SearchRequest struct {
	Query             string
	Category          string
	Limit             int
	MinScore          float32
	UseSemanticSearch bool
}

// NewSearchRequest creates a request with defaults applied.
func NewSearchRequest(query string) *SearchRequest {
	return &SearchRequest{
		Query:             query,
		Limit:             DefaultLimit,
		MinScore:          DefaultMinScore,
		UseSemanticSearch: true,
	}
}

// Engine answers search queries over the knowledge base.
type Engine struct {
	entries   EntryReader
	embedder  ai.Embedder
	index     vectorindex.Index
	logs      storage.QueryLogRepository
	telemetry *telemetry.Logger
	scoring   ScoringConfig
	logger    *slog.Logger
	monitor   SearchMonitor
}

// EntryReader is the slice of the corpus store the engine reads from.
type EntryReader interface {
	GetEntries(ctx context.Context, ids ...core.ID) ([]*core.KnowledgeEntry, error)
	ListPublished(ctx context.Context) ([]*core.KnowledgeEntry, error)
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithScoring overrides the default blend weights.
func WithScoring(config ScoringConfig) Option {
	return func(e *Engine) error {
		e.scoring = config
		return nil
	}
}

// WithMonitor sets a monitor that receives callbacks at each search stage.
func WithMonitor(monitor SearchMonitor) Option {
	return func(e *Engine) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		e.monitor = monitor
		return nil
	}
}

// WithTelemetry sets the telemetry logger for query logs and counters.
func WithTelemetry(tel *telemetry.Logger) Option {
	return func(e *Engine) error {
		e.telemetry = tel
		return nil
	}
}

// NewEngine creates a new search engine. embedder and index may be nil, in
// which case every search takes the keyword path.
func NewEngine(entries EntryReader, embedder ai.Embedder, index vectorindex.Index, opts ...Option) (*Engine, error) {
	if entries == nil {
		return nil, ErrEntryRepositoryRequired
	}

	e := &Engine{
		entries:  entries,
		embedder: embedder,
		index:    index,
		scoring:  DefaultScoringConfig(),
		logger:   slog.Default(),
		monitor:  &noopMonitor{},
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Search answers a query. The returned error is non-nil only for request
// validation failures; dependency failures degrade to the keyword path or
// to a response with Success set to false.
func (e *Engine) Search(ctx context.Context, req *SearchRequest) (*core.SearchResponse, error) {
	start := time.Now()

	if err := core.ValidateSearchQuery(req.Query); err != nil {
		return nil, err
	}

	// Defaults apply to a copy so the caller's request is never mutated
	q := *req
	req = &q
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.MinScore <= 0 {
		req.MinScore = DefaultMinScore
	}

	e.monitor.Start(req.Query)

	response := &core.SearchResponse{Success: true}

	semanticAttempted := false
	if req.UseSemanticSearch && e.embedder != nil && e.index != nil {
		semanticAttempted = true

		results, err := e.semanticSearch(ctx, req)
		if err != nil {
			e.logger.Warn("semantic search failed, falling back to keyword", "query", req.Query, "error", err)
			e.monitor.FellBack(err.Error())
		} else if len(results) == 0 {
			e.monitor.FellBack("no semantic candidates")
		} else {
			response.Results = results
			response.Method = core.SearchMethodSemantic
		}
	}

	if response.Method == 0 {
		results, err := e.keywordSearch(ctx, req)
		if err != nil {
			e.logger.Error("keyword search failed", "query", req.Query, "error", err)
			response.Success = false
			response.Error = fmt.Sprintf("search unavailable: %v", err)
		} else {
			response.Results = results
		}
		response.Method = core.SearchMethodKeyword
		response.FallbackUsed = semanticAttempted
	}

	response.TotalResults = len(response.Results)
	response.ResponseTimeMs = time.Since(start).Milliseconds()

	e.logQuery(ctx, req, response)
	e.monitor.Finish(response.Results)

	return response, nil
}

// RecordClick registers a click on a search result.
func (e *Engine) RecordClick(ctx context.Context, entryID core.ID, position int) error {
	if e.telemetry == nil {
		return nil
	}
	return e.telemetry.RecordClick(ctx, entryID, position)
}

func (e *Engine) semanticSearch(ctx context.Context, req *SearchRequest) ([]*core.SearchResult, error) {
	vector, err := e.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	e.monitor.AfterQueryEmbedding(vector)

	// Over-fetch to survive the published and category filters below.
	matches, err := e.index.Query(ctx, vector, req.Limit*2, req.MinScore)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	e.monitor.AfterVectorQuery(matches)

	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]core.ID, 0, len(matches))
	scores := make(map[core.ID]float32, len(matches))
	for _, match := range matches {
		ids = append(ids, match.Id)
		scores[match.Id] = match.Score
	}

	entries, err := e.entries.GetEntries(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries: %w", err)
	}
	e.monitor.AfterEntryFetch(entries)

	found := make(map[core.ID]bool, len(entries))
	results := make([]*core.SearchResult, 0, len(entries))
	for _, entry := range entries {
		found[entry.Id] = true

		if !entry.SearchEligible() {
			e.logger.Warn("dropping ineligible entry from results", "entryId", entry.Id, "published", entry.IsPublished)
			continue
		}
		if req.Category != "" && entry.Category != req.Category {
			continue
		}

		results = append(results, &core.SearchResult{
			Entry: entry,
			Score: e.scoring.Blend(scores[entry.Id], entry),
		})
	}

	// Index ids with no corpus entry self-heal on the next indexer pass.
	for _, id := range ids {
		if !found[id] {
			e.logger.Warn("vector index id has no corpus entry", "entryId", id)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	return results, nil
}

func (e *Engine) keywordSearch(ctx context.Context, req *SearchRequest) ([]*core.SearchResult, error) {
	tokens := significantTokens(req.Query)
	if len(tokens) == 0 {
		return nil, nil
	}

	published, err := e.entries.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list published entries: %w", err)
	}

	results := make([]*core.SearchResult, 0)
	for _, entry := range published {
		if req.Category != "" && entry.Category != req.Category {
			continue
		}
		if !matchesAnyToken(entry.Question, tokens) && !matchesAnyToken(entry.Answer, tokens) {
			continue
		}

		results = append(results, &core.SearchResult{
			Entry: entry,
			Score: e.scoring.KeywordScore,
		})
	}

	// Popularity is the only ordering signal available without a
	// semantic score.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Entry.Views > results[j].Entry.Views
	})
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	return results, nil
}

// logQuery records the telemetry side effect of one search call.
func (e *Engine) logQuery(ctx context.Context, req *SearchRequest, response *core.SearchResponse) {
	if e.telemetry == nil {
		return
	}

	log := &core.SearchQueryLog{
		Query:          req.Query,
		ResultCount:    response.TotalResults,
		ResponseTimeMs: response.ResponseTimeMs,
		Method:         response.Method,
		FallbackUsed:   response.FallbackUsed,
	}
	if len(response.Results) > 0 {
		log.TopResultId = response.Results[0].Entry.Id
		log.TopResultScore = response.Results[0].Score
	}

	e.telemetry.LogQuery(ctx, log)
}
