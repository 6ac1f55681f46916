package engine

import (
	"fmt"

	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

// Migrate copies every suite and key from src into dst.
// This works for:
// - JSON files -> SQLite
// - Embedded -> Remote daemon (and back, as a backup)
func Migrate(src prefs.Enumerator, dst prefs.Backend) (int, error) {
	suites, err := src.Suites()
	if err != nil {
		return 0, fmt.Errorf("failed to list suites: %w", err)
	}

	copied := 0
	for _, suite := range suites {
		entries, err := src.Dictionary(suite)
		if err != nil {
			return copied, fmt.Errorf("failed to dump suite %s: %w", suite, err)
		}

		for k, v := range entries {
			if err := dst.Set(suite, k, v); err != nil {
				return copied, fmt.Errorf("failed to set key %s in destination: %w", k, err)
			}
			copied++
		}
	}

	return copied, nil
}
