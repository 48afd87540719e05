package storage

import (
	"context"
	"time"

	"github.com/poiesic/faqit/core"
)

// EntryRepository provides operations for managing knowledge entries.
// It is the source of truth; the vector index holds a derived copy.
type EntryRepository interface {
	// AddEntries adds one or more knowledge entries to storage.
	// For entries with ID=0, generates new IDs from sequence; entries with a
	// preset ID (from an external content-management system) keep it.
	// Sets InsertedAt/UpdatedAt timestamps.
	// Returns the entries with generated IDs and timestamps populated.
	AddEntries(ctx context.Context, entries ...*core.KnowledgeEntry) ([]*core.KnowledgeEntry, error)

	// UpdateEntries updates existing knowledge entries.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.KnowledgeEntry) ([]*core.KnowledgeEntry, error)

	// DeleteEntries removes knowledge entries by their IDs.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, ids ...core.ID) error

	// GetEntry retrieves a single knowledge entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.KnowledgeEntry, error)

	// GetEntries retrieves multiple knowledge entries by their IDs.
	// Returns only the entries that exist (no error for missing entries).
	GetEntries(ctx context.Context, ids ...core.ID) ([]*core.KnowledgeEntry, error)

	// ListPublished retrieves all published entries, ordered by ID.
	ListPublished(ctx context.Context) ([]*core.KnowledgeEntry, error)

	// ListEmbeddingCandidates retrieves published entries that need
	// (re)embedding: no vector yet, the refresh flag is set, or the stored
	// embedding hash no longer matches the current content. With forceAll,
	// returns every published entry. Ordered by ID so resumable runs are
	// deterministic.
	ListEmbeddingCandidates(ctx context.Context, forceAll bool) ([]*core.KnowledgeEntry, error)

	// SetEmbedding writes the embedding fields of an entry in one step:
	// vector, model tag, dimension, content hash, a fresh generation
	// timestamp, and clears the refresh flag. Content and counter fields are
	// left untouched so the indexer never races content edits.
	SetEmbedding(ctx context.Context, id core.ID, vector []float32, model string, hash core.ID) error

	// MarkNeedsRefresh sets the refresh flag on an entry, scheduling it for
	// the next indexer run.
	MarkNeedsRefresh(ctx context.Context, id core.ID) error

	// IncrementViews adds one to the entry's view counter.
	IncrementViews(ctx context.Context, id core.ID) error

	// IncrementClickCount adds one to the entry's search click counter.
	IncrementClickCount(ctx context.Context, id core.ID) error

	// IncrementSearchHits adds one to the entry's top-search-result counter.
	IncrementSearchHits(ctx context.Context, id core.ID) error

	// AddFeedback records one helpful/unhelpful vote.
	AddFeedback(ctx context.Context, id core.ID, helpful bool) error

	// Close closes the repository and releases resources.
	Close() error
}

// QueryLogRepository persists search query telemetry.
type QueryLogRepository interface {
	// AddQueryLog stores one query log row.
	// Assigns an ID from sequence and sets CreatedAt if unset.
	AddQueryLog(ctx context.Context, log *core.SearchQueryLog) (*core.SearchQueryLog, error)

	// AttachClick records a click against the most recent log row whose top
	// result matches entryID, falling back to the most recent row overall.
	// Returns the updated row, or ErrNotFound when no rows exist.
	AttachClick(ctx context.Context, entryID core.ID, position int) (*core.SearchQueryLog, error)

	// ListQueryLogsSince retrieves log rows created at or after since,
	// newest first.
	ListQueryLogsSince(ctx context.Context, since time.Time) ([]*core.SearchQueryLog, error)

	// Close closes the repository and releases resources.
	Close() error
}

// RunRepository persists batch indexing run state, keyed by run id so
// concurrent runs do not clobber each other.
type RunRepository interface {
	// SaveProgress overwrites the in-flight state of a run.
	// Called after every batch.
	SaveProgress(ctx context.Context, run *core.IndexRun) error

	// LoadProgress retrieves the in-flight state of a run.
	// Returns nil, nil if no progress record exists.
	LoadProgress(ctx context.Context, runID string) (*core.IndexRun, error)

	// SaveResult persists the final run report and, separately, its error
	// list for triage.
	SaveResult(ctx context.Context, run *core.IndexRun) error

	// LoadResult retrieves the final report of a completed run.
	// Returns nil, nil if the run never completed.
	LoadResult(ctx context.Context, runID string) (*core.IndexRun, error)

	// LoadErrors retrieves the error list persisted with the final report.
	LoadErrors(ctx context.Context, runID string) ([]core.RunError, error)

	// Close closes the repository and releases resources.
	Close() error
}
