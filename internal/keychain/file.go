package keychain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/celerix-dev/celerix-prefs/internal/vault"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

// ErrPassphraseRequired is returned when a file keychain is opened without a passphrase.
var ErrPassphraseRequired = errors.New("keychain passphrase required")

// Compile-time interface satisfaction check.
var _ prefs.Keychain = (*File)(nil)

// File is a keychain sealed in a single file. Every call reads and, for writes,
// re-seals the whole file.
type File struct {
	path       string
	passphrase string
	params     vault.ScryptParams
	mu         sync.Mutex
}

// NewFile returns a keychain stored at path and sealed with passphrase.
func NewFile(path, passphrase string) (*File, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create keychain dir: %w", err)
	}
	return &File{path: path, passphrase: passphrase, params: vault.DefaultScryptParams}, nil
}

// SetScryptParams overrides the key derivation cost for future writes.
func (f *File) SetScryptParams(p vault.ScryptParams) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = p
}

func (f *File) Get(service, account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", err
	}
	secret, ok := entries[service][account]
	if !ok {
		return "", prefs.ErrNotFound
	}
	return secret, nil
}

func (f *File) Set(service, account, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if entries[service] == nil {
		entries[service] = make(map[string]string)
	}
	entries[service][account] = secret
	return f.save(entries)
}

func (f *File) Delete(service, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[service][account]; !ok {
		return prefs.ErrNotFound
	}
	delete(entries[service], account)
	if len(entries[service]) == 0 {
		delete(entries, service)
	}
	return f.save(entries)
}

// load returns service -> account -> secret. A missing file is an empty keychain.
func (f *File) load() (map[string]map[string]string, error) {
	entries := make(map[string]map[string]string)

	blob, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keychain: %w", err)
	}

	raw, err := vault.Open(f.passphrase, blob)
	if err != nil {
		return nil, fmt.Errorf("open keychain: %w", err)
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode keychain: %w", err)
	}
	return entries, nil
}

func (f *File) save(entries map[string]map[string]string) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode keychain: %w", err)
	}
	blob, err := vault.Seal(f.passphrase, raw, f.params)
	if err != nil {
		return fmt.Errorf("seal keychain: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, blob, 0o600); err != nil {
		return fmt.Errorf("write keychain: %w", err)
	}
	return os.Rename(tempPath, f.path)
}
