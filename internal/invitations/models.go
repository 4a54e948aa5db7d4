package invitations

import (
	"time"

	"github.com/campusconnect/campusconnect/internal/users"
	"github.com/google/uuid"
)

// Status represents the lifecycle state of an invitation.
//
// PENDING is the initial state. ACCEPTED, REJECTED and CANCELLED are
// terminal for the responder; an ACCEPTED invitation is moved back to
// CANCELLED (with a refreshed responded_at) when the connection is
// disconnected after the post closes. The disconnected state shares the
// CANCELLED value with sender cancellation; see DESIGN.md.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid returns true if the status is one of the known variants
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no accept/reject/cancel transition is
// possible from this status.
func (s Status) IsTerminal() bool {
	return s.IsValid() && s != StatusPending
}

// TeamRole represents a team member's role on a post
type TeamRole string

const (
	RoleLead   TeamRole = "LEAD"
	RoleMember TeamRole = "MEMBER"
)

// IsValid returns true if the role is one of the known variants
func (r TeamRole) IsValid() bool {
	return r == RoleLead || r == RoleMember
}

// Invitation represents a collaboration invitation for a post
type Invitation struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PostID        uuid.UUID  `db:"post_id" json:"post_id"`
	InvitedByID   uuid.UUID  `db:"invited_by_id" json:"invited_by_id"`
	InvitedUserID uuid.UUID  `db:"invited_user_id" json:"invited_user_id"`
	Message       *string    `db:"message" json:"message,omitempty"`
	Status        Status     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	RespondedAt   *time.Time `db:"responded_at" json:"responded_at,omitempty"`
}

// PostSummary is the compact post representation attached to invitations
type PostSummary struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Title    string    `db:"title" json:"title"`
	Category string    `db:"category" json:"category"`
	Status   string    `db:"status" json:"status"`
}

// Details is an invitation enriched with its post and both parties
type Details struct {
	Invitation
	Post        PostSummary   `json:"post"`
	InvitedBy   users.Summary `json:"invited_by"`
	InvitedUser users.Summary `json:"invited_user"`
}

// TeamMember represents a user's membership on a post's team
type TeamMember struct {
	PostID   uuid.UUID `db:"post_id" json:"post_id"`
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	Role     TeamRole  `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// Stats holds the invitation counters shown on a user's dashboard.
// Each field is computed by an independent count; accepted and pending
// count received invitations only.
type Stats struct {
	TotalSent           int `json:"total_sent"`
	TotalReceived       int `json:"total_received"`
	AcceptedConnections int `json:"accepted_connections"`
	PendingInvitations  int `json:"pending_invitations"`
}

// ClosureResult reports the outcome of closing a post
type ClosureResult struct {
	PostID                  uuid.UUID  `json:"post_id"`
	Status                  string     `json:"status"`
	ClosedAt                *time.Time `json:"closed_at,omitempty"`
	DisconnectedConnections int        `json:"disconnected_connections"`
}
