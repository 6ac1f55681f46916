// Package prefs provides strongly-typed preferences over pluggable persistence.
//
// A Key[T] names a slot and carries the value type at compile time. Defaults adapts a
// plain key-value Backend (one suite of it), Secured adapts a Keychain. Preferences and
// SecuredPreferences are pass-through facades so call sites never see the concrete store.
//
// Failures never surface as errors on this surface: reads collapse to "absent", plain writes
// are logged and dropped, secure writes report a bool.
package prefs

import "errors"

// ErrNotFound is returned by backends and keychains when an entry does not exist.
var ErrNotFound = errors.New("preference not found")

// --- Persistence boundaries ---

// Backend is the persistence handle a Defaults store writes through.
// Entries are grouped in suites; Get reports absence with ErrNotFound.
type Backend interface {
	Get(suite, key string) (any, error)
	Set(suite, key string, val any) error
	Delete(suite, key string) error
}

// Enumerator lists what a backend holds. Used by migrations and dumps.
type Enumerator interface {
	Suites() ([]string, error)
	Dictionary(suite string) (map[string]any, error)
}

// EnumerableBackend is a Backend that can also be listed.
type EnumerableBackend interface {
	Backend
	Enumerator
}

// Keychain is the platform credential API shape: secrets are addressed by
// service and account. Get reports absence with ErrNotFound.
type Keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
	Delete(service, account string) error
}

// --- Store contracts ---

// Store is the untyped read/write/delete contract of a plain preferences store.
// SetValue with a nil value is the same as RemoveValue.
type Store interface {
	Value(name string) (any, bool)
	SetValue(name string, val any)
	RemoveValue(name string)
}

// SecureStore is the contract of a secured preferences store. Reads complete
// asynchronously; writes report success as a bool.
type SecureStore interface {
	Value(name string, completion func(value string, ok bool))
	SetValue(name, value string) bool
	RemoveValue(name string) bool
}
