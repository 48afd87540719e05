package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/faqit/ai"
	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
	"github.com/poiesic/faqit/vectorindex"
)

// BatchProcessor generates embeddings for one batch of entries and writes
// them through to the corpus store and the vector index. All run state
// changes go through the IndexRun passed to Process, which keeps the
// checkpointing logic out of the batch path.
type BatchProcessor struct {
	repo     storage.EntryRepository
	embedder ai.Embedder
	index    vectorindex.Index
	opts     *Options
}

// NewBatchProcessor creates a new batch processor. index may be nil when
// opts.SkipVectorIndex is set.
func NewBatchProcessor(repo storage.EntryRepository, embedder ai.Embedder, index vectorindex.Index, opts *Options) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		index:    index,
		opts:     opts,
	}
}

// Process embeds one batch and records the outcome on run. Entry-level
// failures are accumulated as RunErrors; only a context cancellation is
// returned as an error. A provider failure for the whole batch marks every
// entry in it failed and lets the run continue with the next batch.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.KnowledgeEntry, run *core.IndexRun) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.EmbeddingInput()
	}

	var batch *ai.EmbeddingBatch
	err := RetryWithBackoff(ctx, func() error {
		var err error
		batch, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.opts.MaxRetries, bp.opts.RetryDelay)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		bp.failBatch(run, entries, fmt.Errorf("embedding failed after %d attempts: %w", bp.opts.MaxRetries, err))
		return nil
	}

	if len(batch.Vectors) != len(entries) {
		bp.failBatch(run, entries, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(entries), len(batch.Vectors)))
		return nil
	}

	run.TokensUsed += batch.TokensUsed

	for i, entry := range entries {
		run.ProcessedEntries++
		vector := NormalizeVector(batch.Vectors[i])

		if bp.opts.DryRun {
			run.SuccessCount++
			run.LastProcessedId = entry.Id
			continue
		}

		hash := core.ContentHash(entry.EmbeddingInput())
		if err := bp.repo.SetEmbedding(ctx, entry.Id, vector, batch.Model, hash); err != nil {
			run.FailureCount++
			run.Errors = append(run.Errors, core.RunError{
				EntryId: entry.Id,
				Message: fmt.Sprintf("store embedding: %v", err),
			})
			continue
		}

		if !bp.opts.SkipVectorIndex {
			record := vectorindex.Record{
				Id:     entry.Id,
				Vector: vector,
				Metadata: vectorindex.Metadata{
					Question:     entry.Question,
					Category:     entry.Category,
					HelpfulRatio: entry.HelpfulRatio(),
				},
			}
			if err := bp.index.Upsert(ctx, record); err != nil {
				// The corpus write stands; flag the entry so the next run
				// retries the index write.
				slog.Warn("vector index upsert failed", "entryId", entry.Id, "error", err)
				if flagErr := bp.repo.MarkNeedsRefresh(ctx, entry.Id); flagErr != nil {
					slog.Warn("failed to flag entry for refresh", "entryId", entry.Id, "error", flagErr)
				}
			}
		}

		run.SuccessCount++
		run.LastProcessedId = entry.Id
	}

	return nil
}

// failBatch records one failure per entry in a batch that could not be
// embedded at all.
func (bp *BatchProcessor) failBatch(run *core.IndexRun, entries []*core.KnowledgeEntry, cause error) {
	for _, entry := range entries {
		run.ProcessedEntries++
		run.FailureCount++
		run.Errors = append(run.Errors, core.RunError{
			EntryId: entry.Id,
			Message: cause.Error(),
		})
	}
}
