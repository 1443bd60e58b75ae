package models

import "time"

// Role distinguishes administrators from basic operators.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleBasic Role = "basic"
)

// Valid reports whether the role is one of the two known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleBasic
}

// User is the profile document backing authentication and role resolution.
// Users are never hard-deleted; deactivation flips IsActive.
type User struct {
	ID           string     `bson:"_id,omitempty" json:"id"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"passwordHash,omitempty" json:"-"`
	Role         Role       `bson:"role" json:"role"`
	IsActive     bool       `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	LastLoginAt  time.Time  `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	ArchivedAt   *time.Time `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`

	// Password reset flow: only a hash of the token is stored.
	ResetTokenHash   string    `bson:"resetTokenHash,omitempty" json:"-"`
	ResetTokenExpiry time.Time `bson:"resetTokenExpiry,omitempty" json:"-"`
}
