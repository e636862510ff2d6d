package api

import (
	"context"
	"net/http"

	"splitmate/internal/models"
	"splitmate/internal/split"
)

// ExpenseInput is a new expense as submitted by the client.
type ExpenseInput struct {
	Description string              `json:"description"`
	Amount      float64             `json:"amount"`
	GroupID     string              `json:"groupId"`
	SplitType   models.SplitType    `json:"splitType"`
	Splits      []models.SplitInput `json:"splits"`
	Note        string              `json:"note,omitempty"`
}

// CreateExpense validates the split client-side and submits the expense.
// An invalid split is rejected before any request is sent.
func (c *Client) CreateExpense(ctx context.Context, input ExpenseInput) (*models.Expense, error) {
	if err := split.Validate(input.SplitType, input.Amount, input.Splits); err != nil {
		return nil, err
	}

	var resp struct {
		Data *models.Expense `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/expenses", nil, input, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UserExpenses lists the current user's expenses across all groups.
func (c *Client) UserExpenses(ctx context.Context, opts ListOptions) ([]models.Expense, Pagination, error) {
	var resp struct {
		Data       []models.Expense `json:"data"`
		Pagination Pagination       `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/expenses/user", opts.values(), nil, &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Data, resp.Pagination, nil
}
