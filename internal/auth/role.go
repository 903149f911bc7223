package auth

import "fmt"

// Role is the closed set of account roles. Anything outside the set is denied
// everywhere.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

var AllRoles = []Role{RoleEmployee, RoleManager, RoleAdmin}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanDecide reports whether the role may approve or reject claims.
func (r Role) CanDecide() bool {
	switch r {
	case RoleManager, RoleAdmin:
		return true
	case RoleEmployee:
		return false
	default:
		return false
	}
}

// CanAudit reports whether the role sees trashed claims and manages categories.
func (r Role) CanAudit() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleEmployee, RoleManager:
		return false
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
