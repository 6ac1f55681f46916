package engine

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/celerix-dev/celerix-prefs/internal/codec"
)

// MemStore is the thread-safe in-memory backend.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [suite][key]value
	data      map[string]map[string]any
	versions  map[string]uint64
	persister *Persistence
	wg        sync.WaitGroup
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and an optional persister.
func NewMemStore(initialData map[string]map[string]any, p *Persistence) *MemStore {
	if initialData == nil {
		initialData = make(map[string]map[string]any)
	}
	return &MemStore{
		data:      initialData,
		versions:  make(map[string]uint64),
		persister: p,
	}
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

func (m *MemStore) Get(suite, key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.data[suite][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return val, nil
}

// Set stores a deep copy of val, so the caller may keep mutating its own maps
// and slices. Composite values read back as decoded JSON.
func (m *MemStore) Set(suite, key string, val any) error {
	val, err := codec.Clone(val)
	if err != nil {
		return fmt.Errorf("encode value %s/%s: %w", suite, key, err)
	}

	m.mu.Lock()
	if m.data[suite] == nil {
		m.data[suite] = make(map[string]any)
	}
	m.data[suite][key] = val

	snap := m.snapshot(suite)
	m.mu.Unlock()

	m.persist(snap)
	return nil
}

func (m *MemStore) Delete(suite, key string) error {
	m.mu.Lock()
	entries, ok := m.data[suite]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	if _, ok := entries[key]; !ok {
		m.mu.Unlock()
		return nil
	}
	delete(entries, key)

	snap := m.snapshot(suite)
	m.mu.Unlock()

	m.persist(snap)
	return nil
}

// suiteSnapshot is a versioned copy of one suite, taken under the write lock.
type suiteSnapshot struct {
	suite   string
	version uint64
	data    map[string]any
}

// snapshot MUST be called while holding m.mu.Lock.
func (m *MemStore) snapshot(suite string) suiteSnapshot {
	m.versions[suite]++
	return suiteSnapshot{
		suite:   suite,
		version: m.versions[suite],
		data:    maps.Clone(m.data[suite]),
	}
}

// persist saves a suite snapshot in the background.
func (m *MemStore) persist(snap suiteSnapshot) {
	if m.persister == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.persister.saveVersion(snap.suite, snap.version, snap.data)
	}()
}

// Suites returns the sorted names of all suites holding at least one key.
func (m *MemStore) Suites() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]string, 0, len(m.data))
	for name, entries := range m.data {
		if len(entries) > 0 {
			list = append(list, name)
		}
	}
	sort.Strings(list)
	return list, nil
}

// Dictionary returns a copy of every key and value in suite.
func (m *MemStore) Dictionary(suite string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.data[suite]
	if !ok {
		return nil, ErrSuiteNotFound
	}
	// Return a copy to prevent external mutation of the internal map
	return maps.Clone(entries), nil
}

// Move transfers key from the src suite to the dst suite.
func (m *MemStore) Move(src, dst, key string) error {
	m.mu.Lock()
	val, ok := m.data[src][key]
	if !ok {
		m.mu.Unlock()
		return ErrKeyNotFound
	}
	if src == dst {
		m.mu.Unlock()
		return nil
	}
	if m.data[dst] == nil {
		m.data[dst] = make(map[string]any)
	}
	m.data[dst][key] = val
	delete(m.data[src], key)

	srcSnap := m.snapshot(src)
	dstSnap := m.snapshot(dst)
	m.mu.Unlock()

	m.persist(srcSnap)
	m.persist(dstSnap)
	return nil
}
