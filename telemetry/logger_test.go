package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage/badger"
)

func TestLogQuery(t *testing.T) {
	entryRepo, queryLogRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { queryLogRepo.Close(); entryRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := entryRepo.AddEntries(ctx, &core.KnowledgeEntry{
		Question:    "How do I cancel my subscription?",
		Answer:      "From account settings.",
		IsPublished: true,
	})
	require.NoError(t, err)

	logger, err := NewLogger(entryRepo, queryLogRepo)
	require.NoError(t, err)
	defer logger.Close()

	logger.LogQuery(ctx, &core.SearchQueryLog{
		Query:          "cancel subscription",
		ResultCount:    1,
		TopResultId:    added[0].Id,
		TopResultScore: 0.88,
		Method:         core.SearchMethodSemantic,
	})
	logger.Flush()

	logs, err := queryLogRepo.ListQueryLogsSince(ctx, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "cancel subscription", logs[0].Query)

	entry, err := entryRepo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.SearchHits)
}

func TestLogQueryNoTopResult(t *testing.T) {
	entryRepo, queryLogRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { queryLogRepo.Close(); entryRepo.Close(); backend.Close() }()

	ctx := context.Background()

	logger, err := NewLogger(entryRepo, queryLogRepo)
	require.NoError(t, err)
	defer logger.Close()

	logger.LogQuery(ctx, &core.SearchQueryLog{
		Query:  "no results for this",
		Method: core.SearchMethodKeyword,
	})
	logger.Flush()

	logs, err := queryLogRepo.ListQueryLogsSince(ctx, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRecordClick(t *testing.T) {
	entryRepo, queryLogRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { queryLogRepo.Close(); entryRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := entryRepo.AddEntries(ctx, &core.KnowledgeEntry{
		Question:    "Where is my order?",
		Answer:      "Check the tracking link.",
		IsPublished: true,
	})
	require.NoError(t, err)

	logger, err := NewLogger(entryRepo, queryLogRepo)
	require.NoError(t, err)
	defer logger.Close()

	logger.LogQuery(ctx, &core.SearchQueryLog{
		Query:       "order status",
		ResultCount: 1,
		TopResultId: added[0].Id,
		Method:      core.SearchMethodSemantic,
	})
	logger.Flush()

	require.NoError(t, logger.RecordClick(ctx, added[0].Id, 1))

	// Click counter bumped by exactly one
	entry, err := entryRepo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.ClickCount)

	// Click attached to the matching log row
	logs, err := queryLogRepo.ListQueryLogsSince(ctx, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, added[0].Id, logs[0].ClickedEntryId)
	assert.Equal(t, 1, logs[0].ClickedPosition)
}

func TestRecordClickWithoutQueryLog(t *testing.T) {
	entryRepo, queryLogRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { queryLogRepo.Close(); entryRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := entryRepo.AddEntries(ctx, &core.KnowledgeEntry{
		Question:    "Is there a free tier?",
		Answer:      "Yes.",
		IsPublished: true,
	})
	require.NoError(t, err)

	logger, err := NewLogger(entryRepo, queryLogRepo)
	require.NoError(t, err)
	defer logger.Close()

	// No prior query: the counter still moves, no error surfaces
	require.NoError(t, logger.RecordClick(ctx, added[0].Id, 2))

	entry, err := entryRepo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.ClickCount)
}
