package enums

import "slices"

// Role is the coarse account role carried in access tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var roles = []Role{RoleUser, RoleAdmin}

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return slices.Contains(roles, r) }

// ParseRole ignores case and surrounding space.
func ParseRole(value string) (Role, error) {
	return lookup("role", roles, value, true)
}
