package sdk

import (
	"fmt"
	"log/slog"

	"github.com/celerix-dev/celerix-prefs/internal/engine"
	"github.com/celerix-dev/celerix-prefs/internal/sqlite"
)

// Embedded backend kinds.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Options selects where preferences live.
type Options struct {
	// Addr of a remote daemon. Empty, or unreachable, selects embedded mode.
	Addr       string
	DisableTLS bool

	// Embedded mode.
	Backend string // BackendJSON (default) or BackendSQLite
	DataDir string
	DBPath  string

	Logger *slog.Logger
}

// New returns a store for the environment described by o.
// The application does not need to care whether it is local or remote.
func New(o Options) (ClosableStore, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 1. Prefer a remote daemon when one is configured
	if o.Addr != "" {
		opts := []Option{WithClientLogger(logger)}
		if o.DisableTLS {
			opts = append(opts, WithoutTLS())
		}
		client, err := Connect(o.Addr, opts...)
		if err == nil {
			return client, nil
		}
		logger.Warn("daemon unreachable, using embedded store", "addr", o.Addr, "error", err)
	}

	// 2. Fall back to embedded mode, using the same engines the daemon uses
	return OpenEmbedded(o.Backend, o.DataDir, o.DBPath, logger)
}

// OpenEmbedded opens an in-process store of the given backend kind.
func OpenEmbedded(backend, dataDir, dbPath string, logger *slog.Logger) (ClosableStore, error) {
	switch backend {
	case "", BackendJSON:
		p, err := engine.NewPersistence(dataDir)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			p.SetLogger(logger)
		}
		allData, err := p.LoadAll()
		if err != nil {
			return nil, err
		}
		return &embeddedJSON{MemStore: engine.NewMemStore(allData, p)}, nil

	case BackendSQLite:
		db, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, err
		}
		return &embeddedSQLite{DefaultsRepo: sqlite.NewDefaultsRepo(db), db: db}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// embeddedJSON flushes pending writes on Close.
type embeddedJSON struct {
	*engine.MemStore
}

func (e *embeddedJSON) Close() error {
	e.Wait()
	return nil
}

type embeddedSQLite struct {
	*sqlite.DefaultsRepo
	db *sqlite.DB
}

func (e *embeddedSQLite) Close() error {
	return e.db.Close()
}
