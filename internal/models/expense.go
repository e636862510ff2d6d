package models

// SplitType selects how an expense is divided among members.
type SplitType string

const (
	// SplitEqual divides the amount evenly across the selected members.
	SplitEqual SplitType = "EQUAL"

	// SplitExact assigns an explicit amount per member; the amounts must
	// sum to the expense total.
	SplitExact SplitType = "EXACT"

	// SplitPercentage assigns a percentage per member; the percentages
	// must sum to 100.
	SplitPercentage SplitType = "PERCENTAGE"
)

// Expense is one shared cost within a group. The server computes the
// resulting per-member splits; the client only submits and renders them.
type Expense struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	SplitType   SplitType `json:"splitType"`
	Splits      []Split   `json:"splits,omitempty"`
	PaidBy      User      `json:"paidBy"`
	GroupID     string    `json:"groupId,omitempty"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   string    `json:"createdAt,omitempty"`
}

// Split is one member's server-computed share of an expense.
type Split struct {
	User   User    `json:"user"`
	Amount float64 `json:"amount"`
	IsPaid bool    `json:"isPaid"`
}

// SplitInput is one member's share as submitted with a new expense.
// Amount is set for EXACT splits, Percentage for PERCENTAGE splits, and
// neither for EQUAL splits.
type SplitInput struct {
	UserID     string  `json:"user"`
	Amount     float64 `json:"amount,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
}

// Payment is a settlement transfer between two members of a group.
type Payment struct {
	ID        string  `json:"_id"`
	PaidBy    User    `json:"paidBy"`
	PaidTo    User    `json:"paidTo"`
	Amount    float64 `json:"amount"`
	GroupID   string  `json:"groupId,omitempty"`
	ExpenseID string  `json:"expenseId,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}
