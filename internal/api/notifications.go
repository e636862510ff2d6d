package api

import (
	"context"
	"net/http"

	"splitmate/internal/models"
)

// Notifications fetches the current user's notification feed.
func (c *Client) Notifications(ctx context.Context, opts ListOptions) ([]models.Notification, Pagination, error) {
	var resp struct {
		Data       []models.Notification `json:"data"`
		Pagination Pagination            `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications", opts.values(), nil, &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Data, resp.Pagination, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/notifications/"+id+"/read", nil, nil, nil)
}

// MarkAllNotificationsRead marks the whole feed as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/notifications/read-all", nil, nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+id, nil, nil, nil)
}
