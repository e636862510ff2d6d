package api

import (
	"context"
	"net/http"
	"net/url"

	"splitmate/internal/models"
)

// Balance fetches the server-derived summary of what the current user
// owes and is owed.
func (c *Client) Balance(ctx context.Context) (*models.Balance, error) {
	var resp struct {
		Data *models.Balance `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/balance", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SearchUsers finds users by name or email fragment, for invitations.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	q := url.Values{"query": {query}}

	var resp struct {
		Data []models.User `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
