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


package indexer

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/faqit/ai"
	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
	"github.com/poiesic/faqit/vectorindex"
)

// Indexer orchestrates a batch embedding run over the knowledge base.
type Indexer struct {
	repo      storage.EntryRepository
	runs      storage.RunRepository
	embedder  ai.Embedder
	index     vectorindex.Index
	opts      *Options
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EntryIterator
}

// NewIndexer creates a new indexer.
// progress: where to write progress output (typically os.Stderr)
func NewIndexer(repo storage.EntryRepository, runs storage.RunRepository, embedder ai.Embedder, index vectorindex.Index, opts *Options, progress io.Writer) *Indexer {
	if opts == nil {
		opts = DefaultOptions()
	}
	opts.normalize()
	if index == nil {
		// Without a vector index, embeddings go to the corpus store only.
		opts.SkipVectorIndex = true
	}

	return &Indexer{
		repo:      repo,
		runs:      runs,
		embedder:  embedder,
		index:     index,
		opts:      opts,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, index, opts),
		iterator:  NewEntryIterator(repo, opts),
	}
}

// Run executes an indexing run and returns its final report. The report is
// persisted even on failure; a non-nil error means the run aborted fatally,
// while entry-level failures only show up in the report's counts and error
// list. Context cancellation finishes the in-flight batch, persists state,
// and returns the report with Aborted set.
func (ix *Indexer) Run(ctx context.Context) (*core.IndexRun, error) {
	run := &core.IndexRun{
		RunId:     newRunID(),
		StartedAt: time.Now().UTC(),
	}

	entries, err := ix.iterator.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}

	run.TotalEntries = len(entries)
	if run.TotalEntries == 0 {
		fmt.Fprintf(ix.progress, "No entries need embedding\n")
		run.EndedAt = time.Now().UTC()
		if err := ix.runs.SaveResult(ctx, run); err != nil {
			return run, fmt.Errorf("%w: %v", ErrRunStateUnwritable, err)
		}
		return run, nil
	}

	fmt.Fprintf(ix.progress, "Starting run %s: %d entries (batch size: %d)\n",
		run.RunId, run.TotalEntries, ix.opts.BatchSize)

	// The run state must be writable before any provider calls are made.
	if err := ix.runs.SaveProgress(ctx, run); err != nil {
		return run, fmt.Errorf("%w: %v", ErrRunStateUnwritable, err)
	}

	tracker := NewProgressTracker(ix.progress, run.TotalEntries, ix.opts.ReportInterval)
	tracker.Start()

	limiter := rate.NewLimiter(rate.Limit(ix.opts.BatchesPerSecond), 1)

	err = ix.iterator.ForEach(ctx, entries, func(batch []*core.KnowledgeEntry) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		if err := ix.processor.Process(ctx, batch, run); err != nil {
			return err
		}

		tracker.Update(run.ProcessedEntries)

		if err := ix.runs.SaveProgress(ctx, run); err != nil {
			return fmt.Errorf("%w: %v", ErrRunStateUnwritable, err)
		}
		return nil
	})

	run.EndedAt = time.Now().UTC()

	if err != nil {
		run.Aborted = true
		if saveErr := ix.runs.SaveResult(context.WithoutCancel(ctx), run); saveErr != nil {
			return run, fmt.Errorf("%w: %v", ErrRunStateUnwritable, saveErr)
		}
		if ctx.Err() != nil {
			// Operator shutdown: state is persisted, report it cleanly.
			fmt.Fprintf(ix.progress, "\nRun %s interrupted after %d/%d entries\n",
				run.RunId, run.ProcessedEntries, run.TotalEntries)
			return run, nil
		}
		return run, err
	}

	if err := ix.runs.SaveResult(ctx, run); err != nil {
		return run, fmt.Errorf("%w: %v", ErrRunStateUnwritable, err)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(ix.progress, "Run %s complete: %d succeeded, %d failed in %v (%.1f entries/sec, %d tokens, ~$%.4f)\n",
		run.RunId, run.SuccessCount, run.FailureCount, elapsed.Round(time.Second),
		float64(run.ProcessedEntries)/elapsed.Seconds(), run.TokensUsed, EstimateCost(run.TokensUsed))

	return run, nil
}

// newRunID derives a run identity from the wall clock. Two runs started in
// the same second would clobber each other's state, which is acceptable for
// a periodic job.
func newRunID() string {
	return "run-" + time.Now().UTC().Format("20060102-150405")
}
