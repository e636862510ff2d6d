// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"splitmate/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single-writer client state; serialize access instead of failing on
	// SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put writes a value under the given key.
func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}

// Get retrieves the value for a key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ?", key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, nil
}

// Delete removes a key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Update runs fn inside a single transaction.
func (s *SQLiteStore) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PutCookie persists a cookie, replacing any cookie of the same name.
func (s *SQLiteStore) PutCookie(ctx context.Context, c *http.Cookie) error {
	return putCookie(ctx, s.db, c)
}

// Cookie retrieves a live cookie by name; expired rows are purged.
func (s *SQLiteStore) Cookie(ctx context.Context, name string) (*http.Cookie, error) {
	now := time.Now().Unix()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cookies WHERE expires <= ?", now); err != nil {
		return nil, fmt.Errorf("failed to purge expired cookies: %w", err)
	}

	var (
		c       http.Cookie
		expires int64
		secure  int
		site    int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT name, value, path, expires, secure, same_site FROM cookies WHERE name = ? AND expires > ?",
		name, now,
	).Scan(&c.Name, &c.Value, &c.Path, &expires, &secure, &site)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cookie %q: %w", name, err)
	}

	c.Expires = time.Unix(expires, 0)
	c.Secure = secure != 0
	c.SameSite = http.SameSite(site)
	return &c, nil
}

// execer covers both *sql.DB and *sql.Tx for the shared cookie writer.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putCookie(ctx context.Context, db execer, c *http.Cookie) error {
	secure := 0
	if c.Secure {
		secure = 1
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO cookies (name, value, path, expires, secure, same_site) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value, path = excluded.path, expires = excluded.expires, secure = excluded.secure, same_site = excluded.same_site",
		c.Name, c.Value, c.Path, c.Expires.Unix(), secure, int(c.SameSite),
	)
	if err != nil {
		return fmt.Errorf("failed to put cookie %q: %w", c.Name, err)
	}
	return nil
}

// sqliteTx implements storage.Tx over an open transaction.
type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqliteTx) Put(key, value string) error {
	_, err := t.tx.ExecContext(t.ctx,
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}

func (t *sqliteTx) Delete(key string) error {
	if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (t *sqliteTx) PutCookie(c *http.Cookie) error {
	return putCookie(t.ctx, t.tx, c)
}

func (t *sqliteTx) DeleteCookie(name string) error {
	if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM cookies WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete cookie %q: %w", name, err)
	}
	return nil
}
