// Package session manages the client's auth token and user profile.
//
// The pair is persisted obfuscated in the durable store, with the token
// mirrored into a cookie record so anything that inspects cookies before
// the client is fully up sees the same credential. Saving and clearing go
// through single transactional entry points so the client never observes a
// token without its user or vice versa.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"splitmate/internal/credential"
	"splitmate/internal/models"
	"splitmate/internal/storage"
)

// CookieTTL is how long the mirrored token cookie stays valid. It matches
// the expiry the original client used; the server-side token lifetime is
// enforced independently via 401 responses.
const CookieTTL = 6 * time.Hour

// Store is the dependency-injected session accessor. Reads never fail:
// absent and corrupt persisted state both present as "no session".
type Store interface {
	// Save persists the token and user together and refreshes the cookie
	// mirror. This is the preferred entry point.
	Save(ctx context.Context, s *models.Session) error

	// SaveToken persists only the token (plus the cookie mirror). Kept for
	// flows that receive the pair separately; prefer Save.
	SaveToken(ctx context.Context, token string) error

	// SaveUser persists only the user profile. No cookie mirror.
	SaveUser(ctx context.Context, u *models.User) error

	// Token returns the stored token, or "" when absent or corrupt.
	Token(ctx context.Context) string

	// User returns the stored profile, or nil when absent or corrupt.
	User(ctx context.Context) *models.User

	// Current returns the session only when both halves are present.
	Current(ctx context.Context) *models.Session

	// TokenCookie returns the live cookie mirror, or nil when absent or
	// expired.
	TokenCookie(ctx context.Context) *http.Cookie

	// Clear removes both halves and the cookie mirror in one transaction.
	Clear(ctx context.Context) error
}

// Ensure persistentStore implements Store
var _ Store = (*persistentStore)(nil)

type persistentStore struct {
	store    storage.Store
	codec    *credential.Codec
	tokenKey string
	userKey  string
	now      func() time.Time
}

// NewStore builds a Store over the given durable storage and codec. The
// key names double as the cookie name (tokenKey) to match what the server
// side expects to find.
func NewStore(store storage.Store, codec *credential.Codec, tokenKey, userKey string) Store {
	return &persistentStore{
		store:    store,
		codec:    codec,
		tokenKey: tokenKey,
		userKey:  userKey,
		now:      time.Now,
	}
}

func (p *persistentStore) Save(ctx context.Context, s *models.Session) error {
	if !s.Valid() {
		return errors.New("session requires both token and user")
	}

	encToken, err := p.codec.Encode(s.Token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	encUser, err := p.codec.Encode(s.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	return p.store.Update(ctx, func(tx storage.Tx) error {
		if err := tx.Put(p.tokenKey, encToken); err != nil {
			return err
		}
		if err := tx.Put(p.userKey, encUser); err != nil {
			return err
		}
		return tx.PutCookie(p.tokenCookie(encToken))
	})
}

func (p *persistentStore) SaveToken(ctx context.Context, token string) error {
	encToken, err := p.codec.Encode(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return p.store.Update(ctx, func(tx storage.Tx) error {
		if err := tx.Put(p.tokenKey, encToken); err != nil {
			return err
		}
		return tx.PutCookie(p.tokenCookie(encToken))
	})
}

func (p *persistentStore) SaveUser(ctx context.Context, u *models.User) error {
	encUser, err := p.codec.Encode(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return p.store.Put(ctx, p.userKey, encUser)
}

func (p *persistentStore) Token(ctx context.Context) string {
	encoded, err := p.store.Get(ctx, p.tokenKey)
	if err != nil {
		return ""
	}
	var token string
	if !p.codec.Decode(encoded, &token) {
		return ""
	}
	return token
}

func (p *persistentStore) User(ctx context.Context) *models.User {
	encoded, err := p.store.Get(ctx, p.userKey)
	if err != nil {
		return nil
	}
	var u models.User
	if !p.codec.Decode(encoded, &u) {
		return nil
	}
	return &u
}

func (p *persistentStore) Current(ctx context.Context) *models.Session {
	s := &models.Session{Token: p.Token(ctx), User: p.User(ctx)}
	if !s.Valid() {
		return nil
	}
	return s
}

func (p *persistentStore) TokenCookie(ctx context.Context) *http.Cookie {
	c, err := p.store.Cookie(ctx, p.tokenKey)
	if err != nil {
		return nil
	}
	return c
}

func (p *persistentStore) Clear(ctx context.Context) error {
	return p.store.Update(ctx, func(tx storage.Tx) error {
		if err := tx.Delete(p.tokenKey); err != nil {
			return err
		}
		if err := tx.Delete(p.userKey); err != nil {
			return err
		}
		return tx.DeleteCookie(p.tokenKey)
	})
}

func (p *persistentStore) tokenCookie(encodedToken string) *http.Cookie {
	return &http.Cookie{
		Name:     p.tokenKey,
		Value:    encodedToken,
		Path:     "/",
		Expires:  p.now().Add(CookieTTL),
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
