package sdk

import (
	"io"

	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

// --- Functional Interfaces (Interface Segregation) ---

// Mover handles moving a key between suites.
type Mover interface {
	Move(src, dst, key string) error
}

// --- Composite Interfaces ---

// Store is everything the daemon serves and the client offers: the prefs.Backend
// operations, enumeration and moves. The embedded engine, the SQLite repo and
// the remote Client all satisfy it.
type Store interface {
	prefs.EnumerableBackend
	Mover
}

// ClosableStore is a Store holding resources, such as a connection or a database.
type ClosableStore interface {
	Store
	io.Closer
}
