package model

import "strings"

const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// User is the authenticated identity held in a Session.
type User struct {
	ID       int    `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// HomePath is the dashboard a user lands on after login.
func (u User) HomePath() string {
	if u.IsAdmin() {
		return "/admin"
	}
	return "/employee"
}

// Initials is shown in the navbar badge.
func (u User) Initials() string {
	if u.Username == "" {
		return "UN"
	}
	r := []rune(u.Username)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}
