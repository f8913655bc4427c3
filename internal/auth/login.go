package auth

import (
	"errors"
	"strings"

	"haoshi-console/internal/models"
)

var (
	// ErrUnknownUser is returned when no account matches the email.
	ErrUnknownUser = errors.New("您的帳號尚未被授權使用此系統，請聯繫管理員")
	// ErrInactive is returned for accounts that were switched off.
	ErrInactive = errors.New("account is disabled")
)

// UserDirectory finds accounts by email.
type UserDirectory interface {
	UserByEmail(email string) (models.User, bool)
}

// Login resolves an already-verified email to a principal.
func Login(dir UserDirectory, email string) (Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Principal{}, ErrUnknownUser
	}
	u, ok := dir.UserByEmail(email)
	if !ok {
		return Principal{}, ErrUnknownUser
	}
	if !u.Active() {
		return Principal{}, ErrInactive
	}

	role := u.Role
	if role == "" {
		role = models.RoleUser
	}
	return Principal{
		ID:      u.ID.String(),
		Name:    u.Name,
		Email:   u.Email,
		Role:    role,
		Title:   u.Title,
		Picture: u.Picture,
	}, nil
}

// DemoPrincipal is the administrator used by demo sign-in.
func DemoPrincipal() Principal {
	return Principal{
		ID:      "demo-admin",
		Name:    "Demo Admin",
		Email:   "admin@demo.haoshi.com",
		Role:    models.RoleAdmin,
		Title:   "系統管理員 (Demo)",
		Picture: "https://ui-avatars.com/api/?name=Demo+Admin&background=667eea&color=fff",
	}
}
