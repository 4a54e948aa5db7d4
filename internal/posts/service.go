package posts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusconnect/campusconnect/internal/invitations"
	"github.com/campusconnect/campusconnect/internal/pagination"
	"github.com/campusconnect/campusconnect/internal/users"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrPostNotFound is returned when a post does not exist
	ErrPostNotFound = errors.New("post not found")

	// ErrNotAuthor is returned when a non-author tries to modify a post
	ErrNotAuthor = errors.New("only the post author may modify this post")

	// ErrPostClosed is returned when modifying a closed post
	ErrPostClosed = errors.New("post is closed")
)

// Service provides collaboration post operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new post service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

const detailsColumns = `
	p.id, p.author_id, p.title, p.description, p.purpose, p.category,
	p.required_skills, p.team_size_needed, p.duration, p.deadline, p.location,
	p.visibility, p.tags, p.status, p.is_published, p.views,
	p.created_at, p.updated_at, p.closed_at,
	a.id, a.first_name, a.last_name, a.email, a.department, a.profile_picture`

const detailsFrom = `
	FROM posts p
	JOIN users a ON a.id = p.author_id`

func scanDetails(row pgx.Row) (*Details, error) {
	var d Details
	err := row.Scan(
		&d.ID,
		&d.AuthorID,
		&d.Title,
		&d.Description,
		&d.Purpose,
		&d.Category,
		&d.RequiredSkills,
		&d.TeamSizeNeeded,
		&d.Duration,
		&d.Deadline,
		&d.Location,
		&d.Visibility,
		&d.Tags,
		&d.Status,
		&d.IsPublished,
		&d.Views,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.ClosedAt,
		&d.Author.ID,
		&d.Author.FirstName,
		&d.Author.LastName,
		&d.Author.Email,
		&d.Author.Department,
		&d.Author.ProfilePicture,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateInput contains the fields for creating a post
type CreateInput struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Purpose        *string    `json:"purpose,omitempty"`
	Category       Category   `json:"category"`
	RequiredSkills []string   `json:"required_skills"`
	TeamSizeNeeded *int       `json:"team_size_needed,omitempty"`
	Duration       *string    `json:"duration,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Visibility     Visibility `json:"visibility"`
	Tags           []string   `json:"tags"`
	IsPublished    *bool      `json:"is_published,omitempty"`
}

// Create inserts a new post for the author. New posts start OPEN, or
// DRAFT when explicitly unpublished.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, input CreateInput) (*Details, error) {
	if input.Category == "" {
		input.Category = CategoryProject
	}
	if input.Visibility == "" {
		input.Visibility = VisibilityPublic
	}
	if input.RequiredSkills == nil {
		input.RequiredSkills = []string{}
	}
	if input.Tags == nil {
		input.Tags = []string{}
	}

	isPublished := true
	status := StatusOpen
	if input.IsPublished != nil && !*input.IsPublished {
		isPublished = false
		status = StatusDraft
	}

	var postID uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts (author_id, title, description, purpose, category, required_skills,
		                   team_size_needed, duration, deadline, location, visibility, tags,
		                   status, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, authorID, input.Title, input.Description, input.Purpose, input.Category,
		input.RequiredSkills, input.TeamSizeNeeded, input.Duration, input.Deadline,
		input.Location, input.Visibility, input.Tags, status, isPublished).Scan(&postID)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return s.GetByID(ctx, postID, false)
}

// GetByID returns a post with its author and current team. When
// incrementViews is set the view counter bumps before the read.
func (s *Service) GetByID(ctx context.Context, postID uuid.UUID, incrementViews bool) (*Details, error) {
	if incrementViews {
		if _, err := s.pool.Exec(ctx, `UPDATE posts SET views = views + 1 WHERE id = $1`, postID); err != nil {
			return nil, fmt.Errorf("failed to increment views: %w", err)
		}
	}

	row := s.pool.QueryRow(ctx, `SELECT`+detailsColumns+detailsFrom+` WHERE p.id = $1`, postID)
	details, err := scanDetails(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	members, err := s.teamMembers(ctx, postID)
	if err != nil {
		return nil, err
	}
	details.TeamMembers = members

	return details, nil
}

func (s *Service) teamMembers(ctx context.Context, postID uuid.UUID) ([]invitations.TeamMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT post_id, user_id, role, joined_at
		FROM team_members
		WHERE post_id = $1
		ORDER BY joined_at ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	members := []invitations.TeamMember{}
	for rows.Next() {
		var m invitations.TeamMember
		if err := rows.Scan(&m.PostID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}

	return members, nil
}

// Filter narrows a post listing
type Filter struct {
	Search   string
	Category *Category
	Status   *PostStatus
	AuthorID *uuid.UUID

	// IncludeUnpublished lifts the is_published filter. Used when an
	// author lists their own posts.
	IncludeUnpublished bool
}

// List returns posts matching the filter, newest first, with the total
// matching count.
func (s *Service) List(ctx context.Context, filter Filter, params pagination.Params) ([]Details, int, error) {
	where := "TRUE"
	args := []any{}

	if !filter.IncludeUnpublished {
		where += " AND p.is_published = TRUE"
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (p.title ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		where += fmt.Sprintf(" AND p.category = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		where += fmt.Sprintf(" AND p.author_id = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM posts p WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT%s%s
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, detailsColumns, detailsFrom, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	list := []Details{}
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		list = append(list, *details)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating posts: %w", err)
	}

	return list, total, nil
}

// UpdateInput contains the fields an author may change on a post.
// Nil fields are left untouched.
type UpdateInput struct {
	Title          *string     `json:"title"`
	Description    *string     `json:"description"`
	Purpose        *string     `json:"purpose"`
	Category       *Category   `json:"category"`
	RequiredSkills []string    `json:"required_skills"`
	TeamSizeNeeded *int        `json:"team_size_needed"`
	Duration       *string     `json:"duration"`
	Deadline       *time.Time  `json:"deadline"`
	Location       *string     `json:"location"`
	Visibility     *Visibility `json:"visibility"`
	Tags           []string    `json:"tags"`
	IsPublished    *bool       `json:"is_published"`
}

// Update applies a partial update to a post. Only the author may update,
// and a closed post cannot be edited.
func (s *Service) Update(ctx context.Context, postID, actingUserID uuid.UUID, input UpdateInput) (*Details, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var authorID uuid.UUID
	var status PostStatus
	err = tx.QueryRow(ctx, `
		SELECT author_id, status FROM posts WHERE id = $1 FOR UPDATE
	`, postID).Scan(&authorID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if authorID != actingUserID {
		return nil, ErrNotAuthor
	}
	if status == StatusClosed {
		return nil, ErrPostClosed
	}

	_, err = tx.Exec(ctx, `
		UPDATE posts
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    purpose = COALESCE($4, purpose),
		    category = COALESCE($5, category),
		    required_skills = COALESCE($6, required_skills),
		    team_size_needed = COALESCE($7, team_size_needed),
		    duration = COALESCE($8, duration),
		    deadline = COALESCE($9, deadline),
		    location = COALESCE($10, location),
		    visibility = COALESCE($11, visibility),
		    tags = COALESCE($12, tags),
		    is_published = COALESCE($13, is_published),
		    updated_at = NOW()
		WHERE id = $1
	`, postID, input.Title, input.Description, input.Purpose, input.Category,
		input.RequiredSkills, input.TeamSizeNeeded, input.Duration, input.Deadline,
		input.Location, input.Visibility, input.Tags, input.IsPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetByID(ctx, postID, false)
}

// Delete removes a post. Only the author may delete. Invitations, team
// memberships and audit references cascade at the store level.
func (s *Service) Delete(ctx context.Context, postID, actingUserID uuid.UUID) error {
	var authorID uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, postID).Scan(&authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to load post: %w", err)
	}
	if authorID != actingUserID {
		return ErrNotAuthor
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// Matched returns open published posts by other users whose required
// skills overlap the user's skills. Overlap is computed in memory so the
// case-insensitive comparison stays in one place.
func (s *Service) Matched(ctx context.Context, userID uuid.UUID) ([]Details, error) {
	var skills []string
	err := s.pool.QueryRow(ctx, `SELECT skills FROM users WHERE id = $1`, userID).Scan(&skills)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user skills: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT`+detailsColumns+detailsFrom+`
		WHERE p.status = 'OPEN' AND p.is_published = TRUE AND p.author_id <> $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open posts: %w", err)
	}
	defer rows.Close()

	matched := []Details{}
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if MatchesSkills(details.RequiredSkills, skills) {
			matched = append(matched, *details)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return matched, nil
}
