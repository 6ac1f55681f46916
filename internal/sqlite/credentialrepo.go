package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/celerix-dev/celerix-prefs/internal/vault"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

// ErrEncryptionKeyNotSet is returned when the repo was created without a key.
var ErrEncryptionKeyNotSet = errors.New("credential encryption key not set")

// Compile-time interface satisfaction check.
var _ prefs.Keychain = (*CredentialRepo)(nil)

// CredentialRepo is a keychain kept in SQLite.
// Values are encrypted with AES-256-GCM before write and decrypted after read.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil disables the repo.
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes,
// or nil, in which case every operation returns ErrEncryptionKeyNotSet.
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key}
}

// Get returns the plaintext secret, or prefs.ErrNotFound.
func (r *CredentialRepo) Get(service, account string) (string, error) {
	if r.key == nil {
		return "", ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM credentials WHERE service = ? AND account = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(context.Background(), query, service, account).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", prefs.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential %s/%s: %w", service, account, err)
	}

	plaintext, err := vault.Decrypt(encrypted, r.key)
	if err != nil {
		return "", fmt.Errorf("decrypt credential %s/%s: %w", service, account, err)
	}
	return plaintext, nil
}

// Set stores or replaces the secret for service and account.
func (r *CredentialRepo) Set(service, account, secret string) error {
	if r.key == nil {
		return ErrEncryptionKeyNotSet
	}

	encrypted, err := vault.Encrypt(secret, r.key)
	if err != nil {
		return fmt.Errorf("encrypt credential %s/%s: %w", service, account, err)
	}

	const query = `INSERT OR REPLACE INTO credentials (service, account, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(context.Background(), query, service, account, encrypted); err != nil {
		return fmt.Errorf("set credential %s/%s: %w", service, account, err)
	}
	return nil
}

// Delete removes the secret. It returns prefs.ErrNotFound when nothing was stored.
func (r *CredentialRepo) Delete(service, account string) error {
	if r.key == nil {
		return ErrEncryptionKeyNotSet
	}

	const query = `DELETE FROM credentials WHERE service = ? AND account = ?`
	res, err := r.db.Writer.ExecContext(context.Background(), query, service, account)
	if err != nil {
		return fmt.Errorf("delete credential %s/%s: %w", service, account, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete credential %s/%s: %w", service, account, err)
	}
	if n == 0 {
		return prefs.ErrNotFound
	}
	return nil
}
