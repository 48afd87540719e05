package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
	"github.com/poiesic/faqit/storage/badger"
)

func setupTestRepos(t *testing.T) (storage.EntryRepository, storage.RunRepository, func()) {
	entryRepo, queryLogRepo, runRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	cleanup := func() {
		queryLogRepo.Close()
		entryRepo.Close()
		backend.Close()
	}

	return entryRepo, runRepo, cleanup
}

func addTestEntries(t *testing.T, repo storage.EntryRepository, n int) []*core.KnowledgeEntry {
	t.Helper()

	entries := make([]*core.KnowledgeEntry, n)
	for i := range entries {
		entries[i] = &core.KnowledgeEntry{
			Question:    "Question " + string(rune('A'+i)),
			Answer:      "Answer " + string(rune('A'+i)),
			IsPublished: true,
		}
	}

	added, err := repo.AddEntries(context.Background(), entries...)
	require.NoError(t, err)
	return added
}

func TestEntryIterator_Select(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 5)

	// Embed entry 3 so it drops out of the default selection
	hash := core.ContentHash(added[2].EmbeddingInput())
	require.NoError(t, repo.SetEmbedding(ctx, added[2].Id, []float32{1, 0}, "m", hash))

	it := NewEntryIterator(repo, DefaultOptions())
	selected, err := it.Select(ctx)
	require.NoError(t, err)
	assert.Len(t, selected, 4)
	for _, entry := range selected {
		assert.NotEqual(t, added[2].Id, entry.Id)
	}
}

func TestEntryIterator_SelectForceAll(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 3)

	hash := core.ContentHash(added[0].EmbeddingInput())
	require.NoError(t, repo.SetEmbedding(ctx, added[0].Id, []float32{1, 0}, "m", hash))

	opts := DefaultOptions()
	opts.ForceAll = true
	it := NewEntryIterator(repo, opts)

	selected, err := it.Select(ctx)
	require.NoError(t, err)
	assert.Len(t, selected, 3)
}

func TestEntryIterator_ResumeAndLimit(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 5)

	opts := DefaultOptions()
	opts.ResumeFromID = added[2].Id
	opts.Limit = 2
	it := NewEntryIterator(repo, opts)

	selected, err := it.Select(ctx)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, added[2].Id, selected[0].Id)
	assert.Equal(t, added[3].Id, selected[1].Id)
}

func TestEntryIterator_ForEach(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestEntries(t, repo, 5)

	opts := DefaultOptions()
	opts.BatchSize = 2
	it := NewEntryIterator(repo, opts)

	var sizes []int
	err := it.ForEach(ctx, added, func(batch []*core.KnowledgeEntry) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestEntryIterator_ForEachCancellation(t *testing.T) {
	repo, _, cleanup := setupTestRepos(t)
	defer cleanup()

	added := addTestEntries(t, repo, 4)

	opts := DefaultOptions()
	opts.BatchSize = 2
	it := NewEntryIterator(repo, opts)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := it.ForEach(ctx, added, func(batch []*core.KnowledgeEntry) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
