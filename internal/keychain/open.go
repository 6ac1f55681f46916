package keychain

import (
	"fmt"

	"github.com/celerix-dev/celerix-prefs/internal/sqlite"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

// Kinds accepted by Open.
const (
	KindOS     = "os"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Options selects and configures a keychain.
type Options struct {
	Kind string

	// File keychain.
	FilePath   string
	Passphrase string

	// SQLite credential table. DB must already be migrated.
	DB  *sqlite.DB
	Key []byte
}

// Open returns the keychain described by o. An empty kind selects the OS keychain.
func Open(o Options) (prefs.Keychain, error) {
	switch o.Kind {
	case "", KindOS:
		return OS{}, nil
	case KindFile:
		return NewFile(o.FilePath, o.Passphrase)
	case KindSQLite:
		if o.DB == nil {
			return nil, fmt.Errorf("sqlite keychain needs a database")
		}
		return sqlite.NewCredentialRepo(o.DB, o.Key), nil
	default:
		return nil, fmt.Errorf("unknown keychain kind %q", o.Kind)
	}
}
