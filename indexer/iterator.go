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

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
)

// EntryIterator selects embedding candidates and walks them in batches.
type EntryIterator struct {
	repo storage.EntryRepository
	opts *Options
}

// NewEntryIterator creates a new entry iterator.
func NewEntryIterator(repo storage.EntryRepository, opts *Options) *EntryIterator {
	return &EntryIterator{
		repo: repo,
		opts: opts,
	}
}

// Select returns the entries the run will process, in id order.
// ResumeFromID and Limit are applied after selection, so re-running with
// the same ResumeFromID is idempotent.
func (it *EntryIterator) Select(ctx context.Context) ([]*core.KnowledgeEntry, error) {
	candidates, err := it.repo.ListEmbeddingCandidates(ctx, it.opts.ForceAll)
	if err != nil {
		return nil, err
	}

	if it.opts.ResumeFromID > 0 {
		kept := candidates[:0]
		for _, entry := range candidates {
			if entry.Id >= it.opts.ResumeFromID {
				kept = append(kept, entry)
			}
		}
		candidates = kept
	}

	if it.opts.Limit > 0 && len(candidates) > it.opts.Limit {
		candidates = candidates[:it.opts.Limit]
	}

	return candidates, nil
}

// ForEach calls fn for each batch of the given entries. Iteration stops on
// the first error from fn. Context cancellation is checked between batches.
func (it *EntryIterator) ForEach(ctx context.Context, entries []*core.KnowledgeEntry, fn func([]*core.KnowledgeEntry) error) error {
	for i := 0; i < len(entries); i += it.opts.BatchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := i + it.opts.BatchSize
		if end > len(entries) {
			end = len(entries)
		}

		if err := fn(entries[i:end]); err != nil {
			return err
		}
	}

	return nil
}
