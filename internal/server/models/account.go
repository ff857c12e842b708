package models

import (
	"strings"
	"time"
)

// Role is a named authorization level attached to an account. The ordering
// between roles is owned by the authz package; models only defines the set.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleAnalyst Role = "analyst"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a stored role string. The legacy user files spelled
// roles with a leading capital ("Admin"), so matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(s))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleAnalyst, RoleAdmin:
		return true
	}
	return false
}

// Account is a provisioned user record. Owned exclusively by the credential
// store; the rest of the application reads copies.
type Account struct {
	Username     string
	PasswordHash string
	FullName     string
	Role         Role
	LastDataset  string
}

// Session is the authenticated context for one interactive user. It lives in
// memory only and is discarded on logout or process end.
type Session struct {
	ID              string
	Username        string
	FullName        string
	Role            Role
	AuthenticatedAt time.Time
}
