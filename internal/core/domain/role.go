package domain

// Role determines which tickets a user can see and what actions they may take.
type Role string

const (
	RoleUser       Role = "user"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// ParseRole normalizes a stored role value. Unknown values fall back to the
// least privileged role so a corrupted row can never widen access.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleTechnician, RoleAdmin:
		return Role(s)
	default:
		return RoleUser
	}
}

// IsStaff reports whether the role may be assigned tickets and see internal comments.
func (r Role) IsStaff() bool {
	return r == RoleTechnician || r == RoleAdmin
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
