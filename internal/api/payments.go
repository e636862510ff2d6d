package api

import (
	"context"
	"fmt"
	"net/http"

	"splitmate/internal/models"
)

// PaymentInput records a settlement payment toward another member.
type PaymentInput struct {
	PaidTo    string  `json:"paidTo"`
	Amount    float64 `json:"amount"`
	GroupID   string  `json:"groupId"`
	ExpenseID string  `json:"expenseId,omitempty"`
}

// CreatePayment submits a settlement payment.
func (c *Client) CreatePayment(ctx context.Context, input PaymentInput) (*models.Payment, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive")
	}

	var resp struct {
		Data *models.Payment `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/payments", nil, input, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Payments lists the current user's settlement history.
func (c *Client) Payments(ctx context.Context, opts ListOptions) ([]models.Payment, Pagination, error) {
	var resp struct {
		Data       []models.Payment `json:"data"`
		Pagination Pagination       `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/payments", opts.values(), nil, &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Data, resp.Pagination, nil
}
