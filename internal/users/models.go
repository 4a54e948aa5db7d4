package users

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's campus role
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleFaculty Role = "FACULTY"
)

// IsValid returns true if the role is one of the known variants
func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleFaculty
}

// User represents a registered user
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Role           Role      `db:"role" json:"role"`
	Department     *string   `db:"department" json:"department,omitempty"`
	Designation    *string   `db:"designation" json:"designation,omitempty"`
	Bio            *string   `db:"bio" json:"bio,omitempty"`
	ProfilePicture *string   `db:"profile_picture" json:"profile_picture,omitempty"`
	Skills         []string  `db:"skills" json:"skills"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Summary is the compact user representation embedded in posts and
// invitations.
type Summary struct {
	ID             uuid.UUID `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	Department     *string   `db:"department" json:"department,omitempty"`
	ProfilePicture *string   `db:"profile_picture" json:"profile_picture,omitempty"`
}
