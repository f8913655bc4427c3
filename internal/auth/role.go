// Package auth identifies principals and decides what they may do.
package auth

import (
	"errors"

	"haoshi-console/internal/models"
)

// ErrForbidden is returned when a principal lacks the required role.
var ErrForbidden = errors.New("permission denied")

// Principal is the signed-in user.
type Principal struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	Title   string      `json:"title,omitempty"`
	Picture string      `json:"picture,omitempty"`
}

// roleLevel orders roles; anything not listed is unknown.
var roleLevel = map[models.Role]int{
	models.RoleUser:    0,
	models.RoleManager: 1,
	models.RoleAdmin:   2,
}

// HasRole reports whether a principal's role meets the required one. An
// unknown principal role ranks below every role, and an unknown required
// role cannot be met.
func HasRole(have, required models.Role) bool {
	h, ok := roleLevel[have]
	if !ok {
		h = -1
	}
	r, ok := roleLevel[required]
	if !ok {
		r = 999
	}
	return h >= r
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r models.Role) bool {
	_, ok := roleLevel[r]
	return ok
}

// CanManageData gates editing and deleting listings and communities.
func CanManageData(p Principal) bool {
	return HasRole(p.Role, models.RoleManager)
}

// CanManageUsers gates user management.
func CanManageUsers(p Principal) bool {
	return p.Role == models.RoleAdmin
}

// CanEdit reports whether p may edit records of the given entity.
func CanEdit(p Principal, entity models.Entity) bool {
	if entity == models.EntityUser {
		return CanManageUsers(p)
	}
	return CanManageData(p)
}

// RoleLabel is the Chinese display name for a role.
func RoleLabel(r models.Role) string {
	switch r {
	case models.RoleAdmin:
		return "管理員"
	case models.RoleManager:
		return "經理"
	case models.RoleUser:
		return "業務"
	}
	return string(r)
}
