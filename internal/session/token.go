package session

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is display-only metadata parsed from a JWT access token.
//
// The signature is NOT verified: the client has no key material, and guard
// decisions never depend on these fields. Expiry is enforced by the server
// through 401 responses; this exists so `whoami` can show when that will
// happen.
type TokenInfo struct {
	UserID    string
	Email     string
	IssuedAt  int64
	ExpiresAt int64
}

type tokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// InspectToken parses a JWT without verification. Returns false for
// anything that does not parse as a JWT, which is fine: opaque tokens are
// still valid sessions, they just have nothing to display.
func InspectToken(token string) (*TokenInfo, bool) {
	var claims tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, false
	}

	info := &TokenInfo{
		UserID: claims.UserID,
		Email:  claims.Email,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return info, true
}
