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


package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
)

var (
	// ErrEntryRepositoryRequired is returned when an entry repository is not provided.
	ErrEntryRepositoryRequired = errors.New("entry repository required")

	// ErrQueryLogRepositoryRequired is returned when a query log repository is not provided.
	ErrQueryLogRepositoryRequired = errors.New("query log repository required")
)

const defaultPoolSize = 4

// Logger records search telemetry.
type Logger struct {
	entries storage.EntryRepository
	logs    storage.QueryLogRepository
	pool    *ants.Pool
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// Option configures a Logger.
type Option func(*Logger) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for counter updates.
func WithPoolSize(size int) Option {
	return func(l *Logger) error {
		if size < 1 {
			size = 1
		}
		if l.pool != nil {
			l.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		l.pool = pool
		return nil
	}
}

// NewLogger creates a new telemetry logger.
func NewLogger(entries storage.EntryRepository, logs storage.QueryLogRepository, opts ...Option) (*Logger, error) {
	if entries == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if logs == nil {
		return nil, ErrQueryLogRepositoryRequired
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		entries: entries,
		logs:    logs,
		pool:    pool,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			l.pool.Release()
			return nil, err
		}
	}

	return l, nil
}

// LogQuery writes one query log row and bumps the search hit counter of
// the top result. The row is written before returning; the counter update
// runs on the worker pool. All failures are logged and swallowed so
// telemetry can never fail a search response.
func (l *Logger) LogQuery(ctx context.Context, log *core.SearchQueryLog) {
	if _, err := l.logs.AddQueryLog(ctx, log); err != nil {
		l.logger.Warn("failed to write query log", "query", log.Query, "error", err)
	}

	if log.TopResultId == 0 {
		return
	}

	topID := log.TopResultId
	l.wg.Add(1)
	err := l.pool.Submit(func() {
		defer l.wg.Done()
		if err := l.entries.IncrementSearchHits(context.WithoutCancel(ctx), topID); err != nil {
			l.logger.Warn("failed to increment search hits", "entryId", topID, "error", err)
		}
	})
	if err != nil {
		l.wg.Done()
		l.logger.Warn("failed to submit counter update", "entryId", topID, "error", err)
	}
}

// RecordClick increments the click counter of an entry and attaches the
// click to the most relevant prior query log row. Both writes happen
// synchronously.
func (l *Logger) RecordClick(ctx context.Context, entryID core.ID, position int) error {
	if err := l.entries.IncrementClickCount(ctx, entryID); err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	if _, err := l.logs.AttachClick(ctx, entryID, position); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Click without a prior logged query; the counter update stands.
			l.logger.Debug("no query log row for click", "entryId", entryID)
			return nil
		}
		return fmt.Errorf("failed to attach click: %w", err)
	}

	return nil
}

// Flush blocks until all pending counter updates have completed.
func (l *Logger) Flush() {
	l.wg.Wait()
}

// Close waits for pending counter updates and releases the pool.
func (l *Logger) Close() error {
	l.wg.Wait()
	l.pool.Release()
	return nil
}
