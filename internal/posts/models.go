package posts

import (
	"time"

	"github.com/campusconnect/campusconnect/internal/invitations"
	"github.com/campusconnect/campusconnect/internal/users"
	"github.com/google/uuid"
)

// Category classifies what kind of collaboration a post is looking for
type Category string

const (
	CategoryProject     Category = "PROJECT"
	CategoryResearch    Category = "RESEARCH"
	CategoryCompetition Category = "COMPETITION"
	CategoryWorkshop    Category = "WORKSHOP"
	CategoryOther       Category = "OTHER"
)

// IsValid returns true if the category is one of the known variants
func (c Category) IsValid() bool {
	switch c {
	case CategoryProject, CategoryResearch, CategoryCompetition, CategoryWorkshop, CategoryOther:
		return true
	}
	return false
}

// Visibility controls who can discover a post
type Visibility string

const (
	VisibilityPublic     Visibility = "PUBLIC"
	VisibilityDepartment Visibility = "DEPARTMENT"
	VisibilityPrivate    Visibility = "PRIVATE"
)

// IsValid returns true if the visibility is one of the known variants
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityDepartment, VisibilityPrivate:
		return true
	}
	return false
}

// PostStatus is the lifecycle state of a post. CLOSED is terminal; the
// transition to it cascades over the post's accepted invitations.
type PostStatus string

const (
	StatusDraft  PostStatus = "DRAFT"
	StatusOpen   PostStatus = "OPEN"
	StatusClosed PostStatus = "CLOSED"
)

// IsValid returns true if the status is one of the known variants
func (s PostStatus) IsValid() bool {
	return s == StatusDraft || s == StatusOpen || s == StatusClosed
}

// Post represents a collaboration post
type Post struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	AuthorID       uuid.UUID  `db:"author_id" json:"author_id"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	Purpose        *string    `db:"purpose" json:"purpose,omitempty"`
	Category       Category   `db:"category" json:"category"`
	RequiredSkills []string   `db:"required_skills" json:"required_skills"`
	TeamSizeNeeded *int       `db:"team_size_needed" json:"team_size_needed,omitempty"`
	Duration       *string    `db:"duration" json:"duration,omitempty"`
	Deadline       *time.Time `db:"deadline" json:"deadline,omitempty"`
	Location       *string    `db:"location" json:"location,omitempty"`
	Visibility     Visibility `db:"visibility" json:"visibility"`
	Tags           []string   `db:"tags" json:"tags"`
	Status         PostStatus `db:"status" json:"status"`
	IsPublished    bool       `db:"is_published" json:"is_published"`
	Views          int        `db:"views" json:"views"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	ClosedAt       *time.Time `db:"closed_at" json:"closed_at,omitempty"`
}

// Details is a post enriched with its author and current team
type Details struct {
	Post
	Author      users.Summary            `json:"author"`
	TeamMembers []invitations.TeamMember `json:"team_members,omitempty"`
}
