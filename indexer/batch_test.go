package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/faqit/ai"
	aimock "github.com/poiesic/faqit/ai/mock"
	"github.com/poiesic/faqit/core"
	vimock "github.com/poiesic/faqit/vectorindex/mock"
)

func testOptions() *Options {
	opts := DefaultOptions()
	opts.RetryDelay = 10 * time.Millisecond
	return opts
}

func TestBatchProcessor_Process(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 2)

	embedder := aimock.NewMockEmbedder()
	index := vimock.NewMockIndex(embedder.Dimensions())
	processor := NewBatchProcessor(repo, embedder, index, testOptions())

	run := &core.IndexRun{RunId: "test"}
	require.NoError(t, processor.Process(ctx, added, run))

	assert.Equal(t, 2, run.ProcessedEntries)
	assert.Equal(t, 2, run.SuccessCount)
	assert.Equal(t, 0, run.FailureCount)
	assert.Greater(t, run.TokensUsed, int64(0))
	assert.Equal(t, added[1].Id, run.LastProcessedId)

	// Corpus store and vector index both got the vector
	for _, entry := range added {
		stored, err := repo.GetEntry(ctx, entry.Id)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.Vector)
		assert.False(t, stored.NeedsEmbeddingRefresh)
		assert.True(t, index.Has(entry.Id))
	}
}

func TestBatchProcessor_ProviderFailure(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 2)

	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) (*ai.EmbeddingBatch, error) {
		return nil, errors.New("provider unavailable")
	}
	index := vimock.NewMockIndex(embedder.Dimensions())
	processor := NewBatchProcessor(repo, embedder, index, testOptions())

	run := &core.IndexRun{RunId: "test"}
	require.NoError(t, processor.Process(ctx, added, run))

	// One failure per entry, run continues
	assert.Equal(t, 2, run.ProcessedEntries)
	assert.Equal(t, 0, run.SuccessCount)
	assert.Equal(t, 2, run.FailureCount)
	require.Len(t, run.Errors, 2)
	assert.Equal(t, added[0].Id, run.Errors[0].EntryId)
}

func TestBatchProcessor_DryRun(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 2)

	opts := testOptions()
	opts.DryRun = true

	embedder := aimock.NewMockEmbedder()
	index := vimock.NewMockIndex(embedder.Dimensions())
	processor := NewBatchProcessor(repo, embedder, index, opts)

	run := &core.IndexRun{RunId: "test"}
	require.NoError(t, processor.Process(ctx, added, run))

	assert.Equal(t, 2, run.SuccessCount)

	// Nothing persisted
	stored, err := repo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Empty(t, stored.Vector)
	assert.False(t, index.Has(added[0].Id))
}

func TestBatchProcessor_IndexFailureFlagsRefresh(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 1)

	embedder := aimock.NewMockEmbedder()
	index := vimock.NewMockIndex(embedder.Dimensions())
	index.UpsertErr = errors.New("qdrant unreachable")
	processor := NewBatchProcessor(repo, embedder, index, testOptions())

	run := &core.IndexRun{RunId: "test"}
	require.NoError(t, processor.Process(ctx, added, run))

	// The corpus write stands and counts as a success
	assert.Equal(t, 1, run.SuccessCount)

	// But the entry is flagged so the next run retries the index write
	stored, err := repo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Vector)
	assert.True(t, stored.NeedsEmbeddingRefresh)
}

func TestBatchProcessor_SkipVectorIndex(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 1)

	opts := testOptions()
	opts.SkipVectorIndex = true

	embedder := aimock.NewMockEmbedder()
	processor := NewBatchProcessor(repo, embedder, nil, opts)

	run := &core.IndexRun{RunId: "test"}
	require.NoError(t, processor.Process(ctx, added, run))

	assert.Equal(t, 1, run.SuccessCount)

	stored, err := repo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Vector)
}

func TestBatchProcessor_NormalizesVectors(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 1)

	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) (*ai.EmbeddingBatch, error) {
		return &ai.EmbeddingBatch{
			Vectors:    [][]float32{{3, 4}}, // magnitude 5
			TokensUsed: 10,
			Model:      "mock",
		}, nil
	}
	processor := NewBatchProcessor(repo, embedder, vimock.NewMockIndex(2), testOptions())

	run := &core.IndexRun{RunId: "test"}
	require.NoError(t, processor.Process(ctx, added, run))

	stored, err := repo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, stored.Vector[0], 0.0001)
	assert.InDelta(t, 0.8, stored.Vector[1], 0.0001)
}
