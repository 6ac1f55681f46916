// Package schema defines the data structures exchanged by the daemon, the SDK and the CLI.
package schema

import "time"

// Entry is a single preference value addressed by suite and key.
type Entry struct {
	Suite string `json:"suite"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Snapshot is the export format of one suite.
type Snapshot struct {
	Suite      string         `json:"suite"`
	Entries    map[string]any `json:"entries"`
	ExportedAt time.Time      `json:"exported_at"`
}

// MoveRequest asks the daemon to move a key between suites.
type MoveRequest struct {
	Src string `json:"src" binding:"required"`
	Dst string `json:"dst" binding:"required"`
	Key string `json:"key" binding:"required"`
}
