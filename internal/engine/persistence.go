package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/celerix-dev/celerix-prefs/internal/codec"
)

const suiteFileExt = ".json"

// Persistence handles the disk I/O for the MemStore: one JSON file per suite.
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
	saved   map[string]uint64
	logger  *slog.Logger
}

// NewPersistence initializes a persistence handler rooted at dir.
func NewPersistence(dir string) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Persistence{
		DataDir: dir,
		saved:   make(map[string]uint64),
		logger:  slog.Default(),
	}, nil
}

// SetLogger replaces the logger used for load and save warnings.
func (p *Persistence) SetLogger(l *slog.Logger) {
	if l != nil {
		p.logger = l
	}
}

func (p *Persistence) suitePath(suite string) string {
	return filepath.Join(p.DataDir, url.PathEscape(suite)+suiteFileExt)
}

// SaveSuite writes a single suite to its JSON file atomically.
// An empty suite removes the file.
func (p *Persistence) SaveSuite(suite string, data map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write(suite, data)
}

// saveVersion writes a snapshot unless a newer one for the same suite was already written.
func (p *Persistence) saveVersion(suite string, version uint64, data map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if version <= p.saved[suite] {
		return
	}
	if err := p.write(suite, data); err != nil {
		p.logger.Warn("could not save suite", "suite", suite, "error", err)
		return
	}
	p.saved[suite] = version
}

func (p *Persistence) write(suite string, data map[string]any) error {
	filePath := p.suitePath(suite)

	if len(data) == 0 {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode suite %q: %w", suite, err)
	}

	// Write to a temporary file and rename over the old one, so a crash leaves
	// either the previous file or the new one.
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, filePath)
}

// LoadAll returns every suite found in the data directory.
// Unreadable or corrupt files are skipped with a warning.
func (p *Persistence) LoadAll() (map[string]map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	allData := make(map[string]map[string]any)
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != suiteFileExt {
			continue
		}
		suite, err := url.PathUnescape(strings.TrimSuffix(file.Name(), suiteFileExt))
		if err != nil {
			p.logger.Warn("skipping suite file with invalid name", "file", file.Name(), "error", err)
			continue
		}

		content, err := os.ReadFile(filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			p.logger.Warn("could not read suite file", "file", file.Name(), "error", err)
			continue
		}

		var entries map[string]any
		if err := codec.Decode(content, &entries); err != nil {
			p.logger.Warn("could not decode suite file", "file", file.Name(), "error", err)
			continue
		}
		allData[suite] = entries
	}
	return allData, nil
}
