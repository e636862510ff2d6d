package models

import "encoding/json"

// User is the profile of a registered account, as the server reports it.
type User struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// Username is the display name shown in groups and chat.
	Username string `json:"username"`

	// Email is the login address. Nested documents usually omit it.
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON accepts both "id" (auth responses) and "_id" (nested
// documents) for the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type user User
	aux := struct {
		user
		MongoID string `json:"_id"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.user)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// Session pairs an auth token with the user it authorizes. The two are
// saved and cleared together; the client must never observe one without
// the other.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Valid reports whether the session carries both a token and a user.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User != nil && s.User.ID != ""
}
