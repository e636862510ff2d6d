package models

import "time"

// ChatMessage is one entry in a group's chat, append-only in arrival order.
type ChatMessage struct {
	Sender    User      `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationType classifies server-generated notifications.
type NotificationType string

const (
	NotifyGroupInvite     NotificationType = "GROUP_INVITE"
	NotifyExpenseAdded    NotificationType = "EXPENSE_ADDED"
	NotifyPaymentReceived NotificationType = "PAYMENT_RECEIVED"
	NotifyPaymentReminder NotificationType = "PAYMENT_REMINDER"
	NotifyExpenseSettled  NotificationType = "EXPENSE_SETTLED"
)

// Notification is one item in the user's notification feed.
type Notification struct {
	ID           string           `json:"_id"`
	Type         NotificationType `json:"type"`
	Message      string           `json:"message,omitempty"`
	IsRead       bool             `json:"isRead"`
	RelatedGroup string           `json:"relatedGroup,omitempty"`
	CreatedAt    string           `json:"createdAt,omitempty"`
}
