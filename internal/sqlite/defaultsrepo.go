package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/celerix-dev/celerix-prefs/internal/codec"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

// Compile-time interface satisfaction check.
var _ prefs.EnumerableBackend = (*DefaultsRepo)(nil)

// DefaultsRepo stores preference values as JSON text, one row per suite and key.
type DefaultsRepo struct {
	db *DB
}

// NewDefaultsRepo creates a new DefaultsRepo.
func NewDefaultsRepo(db *DB) *DefaultsRepo {
	return &DefaultsRepo{db: db}
}

func (r *DefaultsRepo) Get(suite, key string) (any, error) {
	return r.GetContext(context.Background(), suite, key)
}

func (r *DefaultsRepo) Set(suite, key string, val any) error {
	return r.SetContext(context.Background(), suite, key, val)
}

func (r *DefaultsRepo) Delete(suite, key string) error {
	return r.DeleteContext(context.Background(), suite, key)
}

// GetContext returns the decoded value, or prefs.ErrNotFound.
func (r *DefaultsRepo) GetContext(ctx context.Context, suite, key string) (any, error) {
	const query = `SELECT value FROM defaults WHERE suite = ? AND key = ?`
	var raw string
	err := r.db.Reader.QueryRowContext(ctx, query, suite, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prefs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default %s/%s: %w", suite, key, err)
	}

	var val any
	if err := codec.Decode([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("decode default %s/%s: %w", suite, key, err)
	}
	return val, nil
}

// SetContext stores or replaces the value for suite and key.
func (r *DefaultsRepo) SetContext(ctx context.Context, suite, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode default %s/%s: %w", suite, key, err)
	}

	const query = `INSERT OR REPLACE INTO defaults (suite, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, suite, key, string(raw)); err != nil {
		return fmt.Errorf("set default %s/%s: %w", suite, key, err)
	}
	return nil
}

// DeleteContext removes the value for suite and key. Missing rows are not an error.
func (r *DefaultsRepo) DeleteContext(ctx context.Context, suite, key string) error {
	const query = `DELETE FROM defaults WHERE suite = ? AND key = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, suite, key); err != nil {
		return fmt.Errorf("delete default %s/%s: %w", suite, key, err)
	}
	return nil
}

// Suites returns the distinct suite names in name order.
func (r *DefaultsRepo) Suites() ([]string, error) {
	const query = `SELECT DISTINCT suite FROM defaults ORDER BY suite`
	rows, err := r.db.Reader.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list suites: %w", err)
	}
	defer rows.Close()

	suites := []string{}
	for rows.Next() {
		var suite string
		if err := rows.Scan(&suite); err != nil {
			return nil, fmt.Errorf("scan suite: %w", err)
		}
		suites = append(suites, suite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suites: %w", err)
	}
	return suites, nil
}

// Dictionary returns every decoded value in suite. An unknown suite yields an empty map.
func (r *DefaultsRepo) Dictionary(suite string) (map[string]any, error) {
	const query = `SELECT key, value FROM defaults WHERE suite = ? ORDER BY key`
	rows, err := r.db.Reader.QueryContext(context.Background(), query, suite)
	if err != nil {
		return nil, fmt.Errorf("dump suite %s: %w", suite, err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan default: %w", err)
		}
		var val any
		if err := codec.Decode([]byte(raw), &val); err != nil {
			return nil, fmt.Errorf("decode default %s/%s: %w", suite, key, err)
		}
		out[key] = val
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate defaults: %w", err)
	}
	return out, nil
}

// Move transfers key from the src suite to the dst suite in one transaction.
func (r *DefaultsRepo) Move(src, dst, key string) error {
	ctx := context.Background()
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT value FROM defaults WHERE suite = ? AND key = ?`, src, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s/%s: %w", src, key, err)
	}
	if src == dst {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO defaults (suite, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		dst, key, raw); err != nil {
		return fmt.Errorf("write %s/%s: %w", dst, key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM defaults WHERE suite = ? AND key = ?`, src, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", src, key, err)
	}
	return tx.Commit()
}
