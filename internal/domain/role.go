package domain

// Role represents a player's secret role for a round's duration.
type Role string

const (
	RoleImpostor Role = "impostor"
	RoleCrew     Role = "crew"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsImpostor returns true if this role is the impostor.
func (r Role) IsImpostor() bool {
	return r == RoleImpostor
}

// Valid reports whether the role is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleImpostor || r == RoleCrew
}
