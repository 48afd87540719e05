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


package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) *RunRepository {
	return &RunRepository{
		backend: backend,
	}
}

// Close is a no-op; the repository holds no resources of its own.
func (r *RunRepository) Close() error {
	return nil
}

// SaveProgress persists the in-flight state of an indexing run. The
// error list is stored under its own key so progress writes stay small.
func (r *RunRepository) SaveProgress(ctx context.Context, run *core.IndexRun) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		errors := run.Errors
		run.Errors = nil
		value := storage.MarshalIndexRun(run)
		run.Errors = errors

		if err := tx.Set(makeRunProgressKey(run.RunId), value); err != nil {
			return err
		}
		if err := tx.Set(makeRunErrorsKey(run.RunId), storage.MarshalRunErrors(errors)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadProgress retrieves the in-flight state of an indexing run.
// Returns nil, nil if no progress record exists.
func (r *RunRepository) LoadProgress(ctx context.Context, runID string) (*core.IndexRun, error) {
	run, err := r.loadRun(makeRunProgressKey(runID))
	if err != nil || run == nil {
		return run, err
	}

	run.Errors, err = r.LoadErrors(ctx, runID)
	return run, err
}

// SaveResult persists the final report of a completed run and removes
// the progress record.
func (r *RunRepository) SaveResult(ctx context.Context, run *core.IndexRun) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		errors := run.Errors
		run.Errors = nil
		value := storage.MarshalIndexRun(run)
		run.Errors = errors

		if err := tx.Set(makeRunResultKey(run.RunId), value); err != nil {
			return err
		}
		if err := tx.Set(makeRunErrorsKey(run.RunId), storage.MarshalRunErrors(errors)); err != nil {
			return err
		}
		if err := tx.Delete(makeRunProgressKey(run.RunId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadResult retrieves the final report of a completed run.
// Returns nil, nil if no result record exists.
func (r *RunRepository) LoadResult(ctx context.Context, runID string) (*core.IndexRun, error) {
	run, err := r.loadRun(makeRunResultKey(runID))
	if err != nil || run == nil {
		return run, err
	}

	run.Errors, err = r.LoadErrors(ctx, runID)
	return run, err
}

// LoadErrors retrieves the per-entry errors recorded for a run.
func (r *RunRepository) LoadErrors(ctx context.Context, runID string) ([]core.RunError, error) {
	var errors []core.RunError

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunErrorsKey(runID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			errors, unmarshalErr = storage.UnmarshalRunErrors(val)
			return unmarshalErr
		})
	}, false)

	return errors, err
}

func (r *RunRepository) loadRun(key []byte) (*core.IndexRun, error) {
	var run *core.IndexRun

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			run, unmarshalErr = storage.UnmarshalIndexRun(val)
			return unmarshalErr
		})
	}, false)

	return run, err
}
