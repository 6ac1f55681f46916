// Package config loads daemon and CLI configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Backend kinds.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds the settings shared by celerix-prefsd and celerix-prefs.
type Config struct {
	DataDir string `env:"CELERIX_PREFS_DATA_DIR" envDefault:"./data"`
	Backend string `env:"CELERIX_PREFS_BACKEND"  envDefault:"json"`
	DBPath  string `env:"CELERIX_PREFS_DB_PATH"`

	Port       string `env:"CELERIX_PREFS_PORT"         envDefault:"7101"`
	HTTPPort   string `env:"CELERIX_PREFS_HTTP_PORT"    envDefault:"7102"`
	DisableTLS bool   `env:"CELERIX_PREFS_DISABLE_TLS"`
	APIToken   string `env:"CELERIX_PREFS_API_TOKEN"`

	// MaxConns caps concurrent TCP clients of the daemon.
	MaxConns int `env:"CELERIX_PREFS_MAX_CONNS" envDefault:"100"`

	// StoreAddr points clients at a remote daemon; empty means embedded mode.
	StoreAddr string `env:"CELERIX_PREFS_STORE_ADDR"`

	KeychainKind       string `env:"CELERIX_PREFS_KEYCHAIN"            envDefault:"os"`
	KeychainService    string `env:"CELERIX_PREFS_KEYCHAIN_SERVICE"    envDefault:"dev.celerix.prefs"`
	KeychainFile       string `env:"CELERIX_PREFS_KEYCHAIN_FILE"`
	KeychainPassphrase string `env:"CELERIX_PREFS_KEYCHAIN_PASSPHRASE"`
	// CredentialKey is the hex-encoded AES-256 key for the SQLite keychain.
	CredentialKey string `env:"CELERIX_PREFS_CREDENTIAL_KEY"`

	OTelEndpoint string `env:"CELERIX_PREFS_OTEL_ENDPOINT"`
}

// Load parses the environment and fills derived defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return nil, fmt.Errorf("CELERIX_PREFS_BACKEND has invalid value %q (want %q or %q)", cfg.Backend, BackendJSON, BackendSQLite)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "prefs.db")
	}
	if cfg.KeychainFile == "" {
		cfg.KeychainFile = filepath.Join(cfg.DataDir, "keychain.enc")
	}
	return &cfg, nil
}

// EnsureDataDir creates the data directory if needed.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o755)
}
