package api

import (
	"context"
	"net/http"

	"splitmate/internal/models"
)

// Groups lists the groups the current user belongs to or is invited to.
func (c *Client) Groups(ctx context.Context, opts ListOptions) ([]models.Group, Pagination, error) {
	var resp struct {
		Data       []models.Group `json:"data"`
		Pagination Pagination     `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups", opts.values(), nil, &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Data, resp.Pagination, nil
}

// CreateGroup creates a new group owned by the current user.
func (c *Client) CreateGroup(ctx context.Context, name, description string) (*models.Group, error) {
	body := map[string]string{"name": name, "description": description}

	var resp struct {
		Data *models.Group `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/groups", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Group fetches one group with members, pending invites and expenses.
func (c *Client) Group(ctx context.Context, groupID string) (*models.Group, error) {
	var resp struct {
		Data *models.Group `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups/"+groupID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// InviteUser invites a user to a group by ID.
func (c *Client) InviteUser(ctx context.Context, groupID, userID string) error {
	body := map[string]string{"userId": userID}
	return c.do(ctx, http.MethodPost, "/groups/"+groupID+"/invite", nil, body, nil)
}

// RespondToInvite accepts or declines a pending group invitation.
func (c *Client) RespondToInvite(ctx context.Context, groupID string, accept bool) error {
	body := map[string]bool{"accept": accept}
	return c.do(ctx, http.MethodPost, "/groups/"+groupID+"/respond", nil, body, nil)
}

// Messages fetches a group's chat history.
func (c *Client) Messages(ctx context.Context, groupID string, opts ListOptions) ([]models.ChatMessage, Pagination, error) {
	var resp struct {
		Data       []models.ChatMessage `json:"data"`
		Pagination Pagination           `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups/"+groupID+"/messages", opts.values(), nil, &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Data, resp.Pagination, nil
}

// SendMessage posts a chat message to a group. Delivery to other members
// happens over the realtime channel; the sender's own view also receives
// the message back through its subscription.
func (c *Client) SendMessage(ctx context.Context, groupID, content string) error {
	body := map[string]string{"content": content}
	return c.do(ctx, http.MethodPost, "/groups/"+groupID+"/messages", nil, body, nil)
}
