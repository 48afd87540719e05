package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
)

// QueryLogRepository implements storage.QueryLogRepository on BadgerDB.
// Log keys embed the creation timestamp so iteration order is
// chronological.
type QueryLogRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.QueryLogRepository = (*QueryLogRepository)(nil)

// NewQueryLogRepository creates a new QueryLogRepository.
func NewQueryLogRepository(backend *Backend) (*QueryLogRepository, error) {
	idSeq, err := backend.GetSequence(queryLogIDSeq)
	if err != nil {
		return nil, err
	}

	return &QueryLogRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *QueryLogRepository) Close() error {
	return r.idSeq.Release()
}

// AddQueryLog persists a query log row.
func (r *QueryLogRepository) AddQueryLog(ctx context.Context, log *core.SearchQueryLog) (*core.SearchQueryLog, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
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
		log.Id = core.ID(nextID)

		if log.CreatedAt.IsZero() {
			log.CreatedAt = time.Now().UTC()
		}

		key := makeQueryLogKey(log.CreatedAt, log.Id)
		if err := tx.Set(key, storage.MarshalSearchQueryLog(log)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return log, err
}

// AttachClick records a click against the most recent query log whose top
// result is the clicked entry. When no such row exists the click lands on
// the most recent log overall, which covers clicks on lower-ranked
// results.
func (r *QueryLogRepository) AttachClick(ctx context.Context, entryID core.ID, position int) (*core.SearchQueryLog, error) {
	var updated *core.SearchQueryLog

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// The scan's iterator must be fully closed before the write below:
		// badger panics on Commit while an iterator is open.
		target, targetKey, err := findClickTarget(tx, entryID)
		if err != nil {
			return err
		}

		target.ClickedEntryId = entryID
		target.ClickedPosition = position

		if err := tx.Set(targetKey, storage.MarshalSearchQueryLog(target)); err != nil {
			return err
		}
		updated = target
		return tx.Commit()
	}, true)

	return updated, err
}

// findClickTarget scans the log rows newest-first for the most recent row
// whose top result matches entryID, falling back to the most recent row
// overall. Returns storage.ErrNotFound when no rows exist. The iterator is
// closed before returning.
func findClickTarget(tx *badger.Txn, entryID core.ID) (*core.SearchQueryLog, []byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(queryLogPrefix + ":")
	opts.Reverse = true
	iter := tx.NewIterator(opts)
	defer iter.Close()

	// Seek past the prefix range so reverse iteration starts at the
	// newest key.
	seekKey := append([]byte(queryLogPrefix+":"), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)

	var newest *core.SearchQueryLog
	var newestKey []byte

	for iter.Seek(seekKey); iter.Valid(); iter.Next() {
		item := iter.Item()

		var log *core.SearchQueryLog
		err := item.Value(func(val []byte) error {
			var err error
			log, err = storage.UnmarshalSearchQueryLog(val)
			return err
		})
		if err != nil {
			return nil, nil, err
		}

		if newest == nil {
			newest = log
			newestKey = item.KeyCopy(nil)
		}
		if log.TopResultId == entryID {
			return log, item.KeyCopy(nil), nil
		}
	}

	if newest == nil {
		return nil, nil, storage.ErrNotFound
	}
	return newest, newestKey, nil
}

// ListQueryLogsSince retrieves all query logs created at or after the
// given time, newest first.
func (r *QueryLogRepository) ListQueryLogsSince(ctx context.Context, since time.Time) ([]*core.SearchQueryLog, error) {
	var logs []*core.SearchQueryLog

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryLogPrefix + ":")
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seekKey := append([]byte(queryLogPrefix+":"), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		lowerBound := makePartialQueryLogKey(since)

		for iter.Seek(seekKey); iter.Valid(); iter.Next() {
			item := iter.Item()
			if string(item.Key()) < string(lowerBound) {
				break
			}

			var log *core.SearchQueryLog
			err := item.Value(func(val []byte) error {
				var err error
				log, err = storage.UnmarshalSearchQueryLog(val)
				return err
			})
			if err != nil {
				return err
			}
			logs = append(logs, log)
		}
		return nil
	}, false)

	return logs, err
}
