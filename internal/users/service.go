package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound is returned when a user does not exist
	ErrUserNotFound = errors.New("user not found")
)

// Service provides user profile operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new user service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

const userColumns = `
	id, email, first_name, last_name, role, department, designation,
	bio, profile_picture, skills, created_at, updated_at
`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.Department,
		&u.Designation,
		&u.Bio,
		&u.ProfilePicture,
		&u.Skills,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID
func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// ProfileUpdate contains the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName      *string  `json:"first_name"`
	LastName       *string  `json:"last_name"`
	Department     *string  `json:"department"`
	Designation    *string  `json:"designation"`
	Bio            *string  `json:"bio"`
	ProfilePicture *string  `json:"profile_picture"`
	Skills         []string `json:"skills"`
}

// UpdateProfile applies a partial update to the user's own profile
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*User, error) {
	query := `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
		    last_name = COALESCE($3, last_name),
		    department = COALESCE($4, department),
		    designation = COALESCE($5, designation),
		    bio = COALESCE($6, bio),
		    profile_picture = COALESCE($7, profile_picture),
		    skills = COALESCE($8, skills),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.pool.QueryRow(ctx, query,
		userID,
		update.FirstName,
		update.LastName,
		update.Department,
		update.Designation,
		update.Bio,
		update.ProfilePicture,
		update.Skills,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// GetSkills returns the user's skill list
func (s *Service) GetSkills(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var skills []string

	err := s.pool.QueryRow(ctx, `SELECT skills FROM users WHERE id = $1`, userID).Scan(&skills)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user skills: %w", err)
	}

	return skills, nil
}
