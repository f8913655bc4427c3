package models

import "strings"

// Role is a principal's permission level.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// User is a console account.
type User struct {
	ID         Text   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Title      string `json:"title,omitempty"`
	Role       Role   `json:"role"`
	IsActive   *bool  `json:"is_active,omitempty"`
	Picture    string `json:"picture,omitempty"`
	LastLogin  string `json:"last_login,omitempty"`
	ImportedAt string `json:"imported_at,omitempty"`
}

// Active reports whether the account may sign in. Rows without the flag count as active.
func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// MatchesEmail compares emails case-insensitively.
func (u *User) MatchesEmail(email string) bool {
	return u.Email != "" && strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}
