// iface.go defines the StoreInterface for dependency injection and testing.
//
// The concrete *Store type satisfies this interface. Code that depends on
// the store (the cmd layer, the background Saver) can accept StoreInterface
// or the narrower SnapshotWriter instead of *Store, enabling fakes in tests.
package store

import "github.com/daviddao/tickledger/pkg/model"

// SnapshotWriter is the part of the store the background Saver needs.
type SnapshotWriter interface {
	// Save replaces the stored snapshot and records a revision.
	Save(state model.State) (model.Revision, error)
}

// StoreInterface defines the full set of store operations.
// The concrete *Store type implements this interface.
type StoreInterface interface {
	SnapshotWriter

	// Close closes the database connection.
	Close() error

	// --- Snapshot ---

	// Load returns the stored snapshot, or the default state if none.
	Load() (model.State, error)

	// HasSnapshot reports whether a snapshot is stored.
	HasSnapshot() (bool, error)

	// Clear removes the snapshot and its revisions.
	Clear() error

	// --- Revisions ---

	// ListRevisions returns up to limit revisions, newest first.
	ListRevisions(limit int) ([]model.Revision, error)
}

// Compile-time check that *Store implements StoreInterface.
var _ StoreInterface = (*Store)(nil)
