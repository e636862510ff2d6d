package models

// Balance is the server-derived summary of what the current user owes and
// is owed. Read-only on the client; the arithmetic is server-owned.
type Balance struct {
	// TotalOwes is the sum the current user owes others.
	TotalOwes float64 `json:"totalOwes"`

	// TotalOwed is the sum others owe the current user.
	TotalOwed float64 `json:"totalOwed"`

	// Owes lists per-user debts of the current user.
	Owes []BalanceEntry `json:"owes"`

	// Owed lists per-user credits of the current user.
	Owed []BalanceEntry `json:"owed"`
}

// BalanceEntry is one counterparty line of a balance summary. The server
// includes enough context to pre-fill a settlement payment.
type BalanceEntry struct {
	User       User    `json:"user"`
	Amount     float64 `json:"amount"`
	PaidTo     string  `json:"paidTo,omitempty"`
	GroupID    string  `json:"groupId,omitempty"`
	ExpenseID  string  `json:"expenseId,omitempty"`
	AmountOwed float64 `json:"amountOwed,omitempty"`
}

// Net is the overall position: positive when the user is owed more than
// they owe.
func (b *Balance) Net() float64 {
	return b.TotalOwed - b.TotalOwes
}
