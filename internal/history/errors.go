package history

import "errors"

var (
	// ErrNotFound is returned when a run ID is not in the store.
	ErrNotFound = errors.New("run not found")

	// ErrStoreNotFound is returned by Open when the database file does not
	// exist and creation was not requested.
	ErrStoreNotFound = errors.New("history database not found")
)
