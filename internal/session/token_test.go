package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestInspectToken(t *testing.T) {
	issued := time.Now().Truncate(time.Second)
	expires := issued.Add(24 * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: "u-42",
		Email:  "carol@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString([]byte("server-side-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}

	info, ok := InspectToken(signed)
	if !ok {
		t.Fatal("InspectToken rejected a well-formed JWT")
	}
	if info.UserID != "u-42" {
		t.Errorf("UserID = %q, want u-42", info.UserID)
	}
	if info.Email != "carol@example.com" {
		t.Errorf("Email = %q, want carol@example.com", info.Email)
	}
	if info.IssuedAt != issued.Unix() {
		t.Errorf("IssuedAt = %d, want %d", info.IssuedAt, issued.Unix())
	}
	if info.ExpiresAt != expires.Unix() {
		t.Errorf("ExpiresAt = %d, want %d", info.ExpiresAt, expires.Unix())
	}
}

func TestInspectTokenOpaque(t *testing.T) {
	// Opaque tokens are valid sessions with nothing to display.
	if _, ok := InspectToken("not-a-jwt"); ok {
		t.Error("InspectToken accepted an opaque token")
	}
	if _, ok := InspectToken(""); ok {
		t.Error("InspectToken accepted an empty token")
	}
}
