package enums

import "fmt"

// UserRole maps to users.role.
type UserRole string

const (
	UserRoleTradie         UserRole = "tradie"
	UserRoleProjectManager UserRole = "project_manager"
	UserRoleSupplier       UserRole = "supplier"
	UserRoleContractor     UserRole = "contractor"
)

var validUserRoles = []UserRole{
	UserRoleTradie,
	UserRoleProjectManager,
	UserRoleSupplier,
	UserRoleContractor,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTradieLike reports whether the role follows tradie rules. Contractor is a
// legacy alias of tradie and is treated identically everywhere.
func (r UserRole) IsTradieLike() bool {
	return r == UserRoleTradie || r == UserRoleContractor
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
