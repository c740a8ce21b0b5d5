package domain

import "strings"

type Role string

const (
	RoleStudent  Role = "student"
	RoleAgent    Role = "agent"
	RoleBusiness Role = "business"
)

var Roles = []Role{RoleStudent, RoleAgent, RoleBusiness}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAgent, RoleBusiness:
		return true
	}
	return false
}

// CanManageListings reports whether the role may create and edit hostels.
func (r Role) CanManageListings() bool {
	return r == RoleBusiness || r == RoleAgent
}

// Identity is the authenticated caller, as carried by a session token.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}
