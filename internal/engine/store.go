// Package engine is the in-process preferences backend: a thread-safe map of
// suites with optional JSON persistence.
package engine

import (
	"errors"

	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

var (
	// ErrSuiteNotFound is returned when a requested suite does not exist.
	ErrSuiteNotFound = errors.New("suite not found")
	// ErrKeyNotFound is returned when a requested key does not exist within a suite.
	ErrKeyNotFound = prefs.ErrNotFound
)

// Compile-time interface satisfaction check.
var _ prefs.EnumerableBackend = (*MemStore)(nil)
