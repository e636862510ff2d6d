package models

// Group is a set of members who share expenses.
type Group struct {
	// ID is the server-assigned identifier.
	ID string `json:"_id"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Members are accepted participants. The member whose user ID matches
	// CreatedBy is rendered as the group admin.
	Members []Member `json:"members"`

	// PendingInvites are users who were invited but have not responded.
	PendingInvites []Invite `json:"pendingInvites,omitempty"`

	// Expenses are the group's expenses when the detail endpoint includes
	// them; list endpoints leave this empty.
	Expenses []Expense `json:"expenses,omitempty"`

	// CreatedBy is the user who created the group.
	CreatedBy User `json:"createdBy"`
}

// Member is one accepted participant of a group.
type Member struct {
	User     User   `json:"user"`
	JoinedAt string `json:"joinedAt,omitempty"`
}

// Invite is a pending membership invitation.
type Invite struct {
	User      User   `json:"user"`
	InvitedAt string `json:"invitedAt,omitempty"`
}

// IsAdmin reports whether the given user created the group.
func (g *Group) IsAdmin(userID string) bool {
	return userID != "" && g.CreatedBy.ID == userID
}
