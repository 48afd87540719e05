package badger

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
)

// EntryRepository implements storage.EntryRepository on BadgerDB.
type EntryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(backend *Backend) (*EntryRepository, error) {
	idSeq, err := backend.GetSequence(entryIDSeq)
	if err != nil {
		return nil, err
	}

	return &EntryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *EntryRepository) Close() error {
	return r.idSeq.Release()
}

// AddEntries adds one or more knowledge entries to storage.
func (r *EntryRepository) AddEntries(ctx context.Context, entries ...*core.KnowledgeEntry) ([]*core.KnowledgeEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			if err := core.ValidateKnowledgeEntry(entry); err != nil {
				return err
			}

			// Entries synced from an external CMS keep their ids; locally
			// created entries get one from the sequence.
			if entry.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				entry.Id = core.ID(nextID)
			}

			entry.InsertedAt = time.Now().UTC()
			entry.UpdatedAt = entry.InsertedAt

			key := makeEntryKey(entry.Id)
			value := storage.MarshalKnowledgeEntry(entry)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// UpdateEntries updates existing knowledge entries.
func (r *EntryRepository) UpdateEntries(ctx context.Context, entries ...*core.KnowledgeEntry) ([]*core.KnowledgeEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			key := makeEntryKey(entry.Id)

			old, err := r.readEntry(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			entry.UpdatedAt = time.Now().UTC()

			value := storage.MarshalKnowledgeEntry(entry)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// DeleteEntries removes knowledge entries by their IDs.
func (r *EntryRepository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeEntryKey(id)

			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single knowledge entry by ID.
func (r *EntryRepository) GetEntry(ctx context.Context, id core.ID) (*core.KnowledgeEntry, error) {
	var entry *core.KnowledgeEntry

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		entry, err = r.readEntry(tx, makeEntryKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, storage.ErrNotFound
	}

	return entry, nil
}

// GetEntries retrieves multiple knowledge entries by their IDs.
// Missing entries are silently skipped.
func (r *EntryRepository) GetEntries(ctx context.Context, ids ...core.ID) ([]*core.KnowledgeEntry, error) {
	entries := make([]*core.KnowledgeEntry, 0, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			entry, err := r.readEntry(tx, makeEntryKey(id))
			if err != nil {
				return err
			}
			if entry != nil {
				entries = append(entries, entry)
			}
		}
		return nil
	}, false)

	return entries, err
}

// ListPublished retrieves all published entries, ordered by ID.
func (r *EntryRepository) ListPublished(ctx context.Context) ([]*core.KnowledgeEntry, error) {
	return r.scan(func(entry *core.KnowledgeEntry) bool {
		return entry.IsPublished
	})
}

// ListEmbeddingCandidates retrieves published entries needing (re)embedding.
func (r *EntryRepository) ListEmbeddingCandidates(ctx context.Context, forceAll bool) ([]*core.KnowledgeEntry, error) {
	return r.scan(func(entry *core.KnowledgeEntry) bool {
		if !entry.IsPublished {
			return false
		}
		if forceAll {
			return true
		}
		if len(entry.Vector) == 0 || entry.NeedsEmbeddingRefresh {
			return true
		}
		// Content edited without the flag being set: the stored hash no
		// longer matches the current embedding input.
		return entry.EmbeddingHash != core.ContentHash(entry.EmbeddingInput())
	})
}

// SetEmbedding writes the embedding fields of an entry and clears the
// refresh flag. All other fields are preserved from the stored entry.
func (r *EntryRepository) SetEmbedding(ctx context.Context, id core.ID, vector []float32, model string, hash core.ID) error {
	return r.mutate(id, func(entry *core.KnowledgeEntry) {
		entry.Vector = vector
		entry.EmbeddingModel = model
		entry.EmbeddingDims = len(vector)
		entry.EmbeddingHash = hash
		entry.NeedsEmbeddingRefresh = false
		entry.EmbeddingGeneratedAt = time.Now().UTC()
	})
}

// MarkNeedsRefresh sets the refresh flag on an entry.
func (r *EntryRepository) MarkNeedsRefresh(ctx context.Context, id core.ID) error {
	return r.mutate(id, func(entry *core.KnowledgeEntry) {
		entry.NeedsEmbeddingRefresh = true
	})
}

// IncrementViews adds one to the entry's view counter.
func (r *EntryRepository) IncrementViews(ctx context.Context, id core.ID) error {
	return r.mutate(id, func(entry *core.KnowledgeEntry) {
		entry.Views++
	})
}

// IncrementClickCount adds one to the entry's search click counter.
func (r *EntryRepository) IncrementClickCount(ctx context.Context, id core.ID) error {
	return r.mutate(id, func(entry *core.KnowledgeEntry) {
		entry.ClickCount++
	})
}

// IncrementSearchHits adds one to the entry's top-search-result counter.
func (r *EntryRepository) IncrementSearchHits(ctx context.Context, id core.ID) error {
	return r.mutate(id, func(entry *core.KnowledgeEntry) {
		entry.SearchHits++
	})
}

// AddFeedback records one helpful/unhelpful vote.
func (r *EntryRepository) AddFeedback(ctx context.Context, id core.ID, helpful bool) error {
	return r.mutate(id, func(entry *core.KnowledgeEntry) {
		if helpful {
			entry.HelpfulCount++
		} else {
			entry.UnhelpfulCount++
		}
	})
}

// mutate applies fn to a stored entry inside one read-modify-write
// transaction. UpdatedAt is bumped.
func (r *EntryRepository) mutate(id core.ID, fn func(entry *core.KnowledgeEntry)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntryKey(id)

		entry, err := r.readEntry(tx, key)
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}

		fn(entry)
		entry.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalKnowledgeEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// scan iterates all stored entries and returns those matching keep,
// ordered by ID.
func (r *EntryRepository) scan(keep func(*core.KnowledgeEntry) bool) ([]*core.KnowledgeEntry, error) {
	var entries []*core.KnowledgeEntry

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var entry *core.KnowledgeEntry
			err := item.Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalKnowledgeEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry == nil {
				continue
			}

			if keep(entry) {
				entries = append(entries, entry)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Keys are formatted decimal, so iteration order is lexicographic,
	// not numeric.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Id < entries[j].Id
	})

	return entries, nil
}

// readEntry reads and unmarshals an entry by key within a transaction.
// Returns nil, nil if the key does not exist.
func (r *EntryRepository) readEntry(tx *badger.Txn, key []byte) (*core.KnowledgeEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.KnowledgeEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalKnowledgeEntry(val)
		return err
	})
	return entry, err
}
