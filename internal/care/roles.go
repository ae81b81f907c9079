package care

import (
	"fmt"
	"strings"
)

// Role is the access level a user holds in the dashboard.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleCaregiver Role = "CAREGIVER"
	RoleSenior    Role = "SENIOR"
)

// ParseRole normalizes and validates a role string as sent by the backend.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCaregiver:
		return RoleCaregiver, nil
	case RoleSenior:
		return RoleSenior, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether the role is one of the three known levels.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCaregiver || r == RoleSenior
}

// In reports whether the role appears in the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
