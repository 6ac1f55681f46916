// Package app builds the stores shared by the daemon and the CLI from configuration.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/celerix-dev/celerix-prefs/internal/config"
	"github.com/celerix-dev/celerix-prefs/internal/keychain"
	"github.com/celerix-dev/celerix-prefs/internal/sqlite"
	"github.com/celerix-dev/celerix-prefs/internal/vault"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
	"github.com/celerix-dev/celerix-prefs/pkg/sdk"
)

// Wire bundles the preference backend and the keychain.
type Wire struct {
	Store    sdk.ClosableStore
	Keychain prefs.Keychain
	Secrets  *prefs.SecuredPreferences

	keychainDB *sqlite.DB
	logger     *slog.Logger
}

// NewWire opens the stores described by cfg. When remote is true and cfg names a
// daemon address, preferences go to the daemon; otherwise they stay in-process.
func NewWire(cfg *config.Config, remote bool, logger *slog.Logger) (*Wire, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := sdk.Options{
		Backend:    cfg.Backend,
		DataDir:    cfg.DataDir,
		DBPath:     cfg.DBPath,
		DisableTLS: cfg.DisableTLS,
		Logger:     logger,
	}
	if remote {
		opts.Addr = cfg.StoreAddr
	}
	store, err := sdk.New(opts)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}

	w := &Wire{Store: store, logger: logger}

	kcOpts := keychain.Options{
		Kind:       cfg.KeychainKind,
		FilePath:   cfg.KeychainFile,
		Passphrase: cfg.KeychainPassphrase,
	}
	if cfg.KeychainKind == keychain.KindSQLite {
		key, err := vault.ParseKey(cfg.CredentialKey)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("CELERIX_PREFS_CREDENTIAL_KEY: %w", err)
		}
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("open credential database: %w", err)
		}
		w.keychainDB = db
		kcOpts.DB = db
		kcOpts.Key = key
	}

	kc, err := keychain.Open(kcOpts)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("open keychain: %w", err)
	}
	w.Keychain = kc
	w.Secrets = prefs.NewSecuredPreferences(
		prefs.NewSecured(kc, cfg.KeychainService, prefs.WithSecuredLogger(logger)),
	)
	return w, nil
}

// Preferences returns a typed facade over suite.
func (w *Wire) Preferences(suite string) *prefs.Preferences {
	return prefs.NewPreferences(prefs.NewDefaults(w.Store, suite, prefs.WithLogger(w.logger)))
}

// Close flushes and closes everything NewWire opened.
func (w *Wire) Close() error {
	var errs []error
	if w.Store != nil {
		errs = append(errs, w.Store.Close())
	}
	if w.keychainDB != nil {
		errs = append(errs, w.keychainDB.Close())
	}
	return errors.Join(errs...)
}
