package listing

import (
	"sort"
	"strings"

	"haoshi-console/internal/auth"
	"haoshi-console/internal/models"
)

// UserRow is a user as shown in the admin panel.
type UserRow struct {
	models.User
	RoleLabel string `json:"role_label"`
	Active    bool   `json:"active"`
	LastLogin string `json:"last_login_display"`
}

// Users lists accounts sorted by name, optionally narrowed by a search on
// name or email.
func Users(users []models.User, search string) []UserRow {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]UserRow, 0, len(users))
	for i := range users {
		u := users[i]
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Name), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		out = append(out, UserRow{
			User:      u,
			RoleLabel: auth.RoleLabel(u.Role),
			Active:    u.Active(),
			LastLogin: FormatDate(u.LastLogin),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
