// Package storage provides abstractions for the client's persistent state.
package storage

import (
	"context"
	"errors"
	"net/http"
)

// ErrNotFound is returned when a key or cookie is absent (or, for cookies,
// already expired).
var ErrNotFound = errors.New("not found")

// Store defines the durable key-value state the client keeps between runs,
// plus the mirrored auth cookie. This abstraction allows swapping backends
// and substituting fakes in tests without touching real storage.
type Store interface {
	// Put writes a value under the given key, replacing any previous value.
	Put(ctx context.Context, key, value string) error

	// Get retrieves the value for a key. Returns ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Update runs fn inside a single transaction, so multi-key writes
	// (the token/user pair) commit or roll back together.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// PutCookie persists a cookie, replacing any cookie of the same name.
	PutCookie(ctx context.Context, c *http.Cookie) error

	// Cookie retrieves a live cookie by name. Expired cookies read as
	// ErrNotFound and are purged.
	Cookie(ctx context.Context, name string) (*http.Cookie, error)

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the write surface available inside Store.Update.
type Tx interface {
	Put(key, value string) error
	Delete(key string) error
	PutCookie(c *http.Cookie) error
	DeleteCookie(name string) error
}
