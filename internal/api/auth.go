package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"splitmate/internal/models"
)

// authResponse is the shape shared by login, register and verify-email.
type authResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// Login authenticates with email and password. On success the session is
// persisted (token and user together) before returning.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	return c.adoptSession(ctx, &resp)
}

// Register creates an account. The server responds with a message (it
// sends a verification email); no session exists until the email is
// verified.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	body := map[string]string{"username": username, "email": email, "password": password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &Error{Status: http.StatusBadRequest, Message: resp.Message}
	}
	return resp.Message, nil
}

// VerifyEmail completes registration with the emailed token. On success
// the server issues a session, which is persisted like a login.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*models.Session, error) {
	query := url.Values{"token": {token}}

	var resp authResponse
	if err := c.do(ctx, http.MethodGet, "/auth/verify-email", query, nil, &resp); err != nil {
		return nil, err
	}
	return c.adoptSession(ctx, &resp)
}

// Logout discards the local session. The server keeps no session state to
// tear down beyond token expiry.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Clear(ctx)
}

func (c *Client) adoptSession(ctx context.Context, resp *authResponse) (*models.Session, error) {
	if !resp.Success {
		return nil, &Error{Status: http.StatusUnauthorized, Message: resp.Message}
	}

	sess := &models.Session{Token: resp.Token, User: resp.User}
	if !sess.Valid() {
		return nil, fmt.Errorf("server response is missing token or user")
	}
	if err := c.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return sess, nil
}
