package indexer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/faqit/ai"
	aimock "github.com/poiesic/faqit/ai/mock"
	vimock "github.com/poiesic/faqit/vectorindex/mock"
)

func TestIndexer_Run(t *testing.T) {
	repo, runs, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	addTestEntries(t, repo, 5)

	opts := testOptions()
	opts.BatchSize = 2
	opts.BatchesPerSecond = 1000

	embedder := aimock.NewMockEmbedder()
	index := vimock.NewMockIndex(embedder.Dimensions())
	ix := NewIndexer(repo, runs, embedder, index, opts, &bytes.Buffer{})

	run, err := ix.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, run.TotalEntries)
	assert.Equal(t, 5, run.SuccessCount)
	assert.Equal(t, 0, run.FailureCount)
	assert.False(t, run.Aborted)
	assert.False(t, run.EndedAt.IsZero())

	// Final report is persisted, progress record is cleared
	result, err := runs.LoadResult(ctx, run.RunId)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 5, result.SuccessCount)

	progress, err := runs.LoadProgress(ctx, run.RunId)
	require.NoError(t, err)
	assert.Nil(t, progress)

	// Nothing left to embed
	candidates, err := repo.ListEmbeddingCandidates(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestIndexer_NoVectorIndex(t *testing.T) {
	repo, runs, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 3)

	// A nil index must behave like SkipVectorIndex even when the caller
	// leaves the option unset
	opts := testOptions()
	opts.BatchesPerSecond = 1000
	opts.SkipVectorIndex = false

	ix := NewIndexer(repo, runs, aimock.NewMockEmbedder(), nil, opts, &bytes.Buffer{})

	run, err := ix.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, run.SuccessCount)
	assert.Equal(t, 0, run.FailureCount)

	// Embeddings landed in the corpus store
	entry, err := repo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.Vector)
	assert.False(t, entry.NeedsEmbeddingRefresh)
}

func TestIndexer_PartialBatchFailure(t *testing.T) {
	repo, runs, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	addTestEntries(t, repo, 5)

	opts := testOptions()
	opts.BatchSize = 2
	opts.BatchesPerSecond = 1000
	opts.MaxRetries = 1

	// Fail the second batch only
	calls := 0
	embedder := aimock.NewMockEmbedder()
	inner := aimock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) (*ai.EmbeddingBatch, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("rate limited")
		}
		return inner.EmbedTexts(ctx, texts)
	}

	index := vimock.NewMockIndex(embedder.Dimensions())
	ix := NewIndexer(repo, runs, embedder, index, opts, &bytes.Buffer{})

	run, err := ix.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, run.SuccessCount)
	assert.Equal(t, 2, run.FailureCount)
	assert.Len(t, run.Errors, 2)

	// A second run re-attempts only the two failed entries
	embedder2 := aimock.NewMockEmbedder()
	ix2 := NewIndexer(repo, runs, embedder2, index, opts, &bytes.Buffer{})

	run2, err := ix2.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, run2.TotalEntries)
	assert.Equal(t, 2, run2.SuccessCount)
}

func TestIndexer_IdempotentResume(t *testing.T) {
	repo, runs, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 4)

	opts := testOptions()
	opts.BatchSize = 2
	opts.BatchesPerSecond = 1000

	embedder := aimock.NewMockEmbedder()
	index := vimock.NewMockIndex(embedder.Dimensions())

	run, err := NewIndexer(repo, runs, embedder, index, opts, &bytes.Buffer{}).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, run.SuccessCount)

	// Re-running from the last processed id finds nothing to do
	opts2 := testOptions()
	opts2.ResumeFromID = run.LastProcessedId
	opts2.BatchesPerSecond = 1000

	embedder2 := aimock.NewMockEmbedder()
	run2, err := NewIndexer(repo, runs, embedder2, index, opts2, &bytes.Buffer{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, run2.TotalEntries)
	assert.Equal(t, 0, embedder2.CallCount())

	for _, entry := range added {
		stored, err := repo.GetEntry(ctx, entry.Id)
		require.NoError(t, err)
		assert.False(t, stored.NeedsEmbeddingRefresh)
	}
}

func TestIndexer_GracefulShutdown(t *testing.T) {
	repo, runs, cleanup := setupTestRepos(t)
	defer cleanup()

	addTestEntries(t, repo, 6)

	opts := testOptions()
	opts.BatchSize = 2
	opts.BatchesPerSecond = 1000

	ctx, cancel := context.WithCancel(context.Background())

	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(innerCtx context.Context, texts []string) (*ai.EmbeddingBatch, error) {
		// Cancel mid-run; the in-flight batch still completes
		cancel()
		return aimock.NewMockEmbedder().EmbedTexts(innerCtx, texts)
	}

	index := vimock.NewMockIndex(embedder.Dimensions())
	run, err := NewIndexer(repo, runs, embedder, index, opts, &bytes.Buffer{}).Run(ctx)
	require.NoError(t, err)

	assert.True(t, run.Aborted)
	assert.Equal(t, 2, run.SuccessCount)

	// State was persisted despite the interruption
	result, err := runs.LoadResult(context.Background(), run.RunId)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Aborted)
}

func TestIndexer_LimitAndDryRun(t *testing.T) {
	repo, runs, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 5)

	opts := testOptions()
	opts.Limit = 3
	opts.DryRun = true
	opts.BatchesPerSecond = 1000

	embedder := aimock.NewMockEmbedder()
	index := vimock.NewMockIndex(embedder.Dimensions())
	run, err := NewIndexer(repo, runs, embedder, index, opts, &bytes.Buffer{}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, run.TotalEntries)
	assert.Equal(t, 3, run.SuccessCount)

	// Dry run persists no embeddings
	stored, err := repo.GetEntry(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Empty(t, stored.Vector)
}
