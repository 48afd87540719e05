package indexer

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRunStateUnwritable is returned when run state cannot be persisted at all
	ErrRunStateUnwritable = errors.New("unable to persist run state")
)
