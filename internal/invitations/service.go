package invitations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrInvitationNotFound is returned when an invitation does not exist
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrPostNotFound is returned when the referenced post does not exist
	ErrPostNotFound = errors.New("post not found")

	// ErrUserNotFound is returned when the invited user does not exist
	ErrUserNotFound = errors.New("invited user not found")

	// ErrInvitePending is returned when a pending invitation already
	// exists for the same (post, invitee) pair
	ErrInvitePending = errors.New("an invitation is already pending for this user")

	// ErrNotInvitee is returned when someone other than the invited user
	// tries to accept or reject
	ErrNotInvitee = errors.New("only the invited user may respond to this invitation")

	// ErrNotSender is returned when someone other than the sender tries to cancel
	ErrNotSender = errors.New("only the sender may cancel this invitation")

	// ErrNotParticipant is returned when someone who is neither sender nor
	// recipient tries to disconnect
	ErrNotParticipant = errors.New("only a party to this invitation may disconnect it")

	// ErrNotAuthor is returned when someone other than the post author
	// tries to close the post
	ErrNotAuthor = errors.New("only the post author may close this post")

	// ErrNotPending is returned when a transition requires a pending invitation
	ErrNotPending = errors.New("invitation is not pending")

	// ErrPostNotClosed is returned when disconnect is attempted while the
	// post is still open
	ErrPostNotClosed = errors.New("connections can only be disconnected after the post is closed")

	// ErrPostNotOpen is returned when closing a post that is not open
	ErrPostNotOpen = errors.New("post is not open")

	// ErrInvalidStatus is returned when a status filter is not a known variant
	ErrInvalidStatus = errors.New("invalid invitation status")
)

// Service owns the invitation lifecycle: sending, responding, the
// team-membership side effects, and the disconnect cascade on post closure.
// Every mutating operation runs as a single transaction and re-checks the
// invitation state under a row lock, so concurrent conflicting requests
// resolve to exactly one winner.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new invitation service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Send creates a new PENDING invitation from invitedByID to invitedUserID
// for a post. A pending invitation for the same (post, invitee) pair is a
// conflict; a prior terminal invitation for the pair is reused and reset.
func (s *Service) Send(ctx context.Context, postID, invitedUserID, invitedByID uuid.UUID, message *string) (*Details, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var postStatus string
	if err := tx.QueryRow(ctx, `SELECT status FROM posts WHERE id = $1`, postID).Scan(&postStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, invitedUserID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to load invited user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	var invitationID uuid.UUID

	var existingID uuid.UUID
	var existingStatus Status
	err = tx.QueryRow(ctx, `
		SELECT id, status
		FROM invitations
		WHERE post_id = $1 AND invited_user_id = $2
		FOR UPDATE
	`, postID, invitedUserID).Scan(&existingID, &existingStatus)

	switch {
	case err == nil:
		if existingStatus == StatusPending {
			return nil, ErrInvitePending
		}
		// Supersede the earlier terminal invitation for this pair.
		if _, err := tx.Exec(ctx, `
			UPDATE invitations
			SET invited_by_id = $2, message = $3, status = $4,
			    created_at = NOW(), responded_at = NULL
			WHERE id = $1
		`, existingID, invitedByID, message, StatusPending); err != nil {
			return nil, fmt.Errorf("failed to reset invitation: %w", err)
		}
		invitationID = existingID

	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `
			INSERT INTO invitations (post_id, invited_by_id, invited_user_id, message)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, postID, invitedByID, invitedUserID, message).Scan(&invitationID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
				// Lost a race with a concurrent send for the same pair.
				return nil, ErrInvitePending
			}
			return nil, fmt.Errorf("failed to create invitation: %w", err)
		}

	default:
		return nil, fmt.Errorf("failed to check existing invitation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetDetails(ctx, invitationID)
}

// Accept transitions a PENDING invitation to ACCEPTED and adds the invited
// user to the post's team. Only the invited user may accept.
func (s *Service) Accept(ctx context.Context, invitationID, actingUserID uuid.UUID) (*Details, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inv, err := lockInvitation(ctx, tx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUserID != actingUserID {
		return nil, ErrNotInvitee
	}
	if inv.Status != StatusPending {
		return nil, fmt.Errorf("%w (current status: %s)", ErrNotPending, inv.Status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invitations
		SET status = $2, responded_at = NOW()
		WHERE id = $1
	`, invitationID, StatusAccepted); err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	if err := addTeamMember(ctx, tx, inv.PostID, inv.InvitedUserID, RoleMember); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetDetails(ctx, invitationID)
}

// Reject transitions a PENDING invitation to REJECTED. Only the invited
// user may reject. Team membership is untouched.
func (s *Service) Reject(ctx context.Context, invitationID, actingUserID uuid.UUID) (*Details, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inv, err := lockInvitation(ctx, tx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUserID != actingUserID {
		return nil, ErrNotInvitee
	}
	if inv.Status != StatusPending {
		return nil, fmt.Errorf("%w (current status: %s)", ErrNotPending, inv.Status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invitations
		SET status = $2, responded_at = NOW()
		WHERE id = $1
	`, invitationID, StatusRejected); err != nil {
		return nil, fmt.Errorf("failed to reject invitation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetDetails(ctx, invitationID)
}

// Cancel transitions a PENDING invitation to CANCELLED. Only the sender
// may cancel. responded_at stays empty: the invitee never responded.
func (s *Service) Cancel(ctx context.Context, invitationID, actingUserID uuid.UUID) (*Details, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inv, err := lockInvitation(ctx, tx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedByID != actingUserID {
		return nil, ErrNotSender
	}
	if inv.Status != StatusPending {
		return nil, fmt.Errorf("%w (current status: %s)", ErrNotPending, inv.Status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invitations
		SET status = $2
		WHERE id = $1
	`, invitationID, StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel invitation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetDetails(ctx, invitationID)
}

// Disconnect ends an individual connection after its post has closed.
// Either party may disconnect. The invitation becomes CANCELLED with a
// refreshed responded_at and the invited user leaves the team.
func (s *Service) Disconnect(ctx context.Context, invitationID, actingUserID uuid.UUID) (*Details, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inv, err := lockInvitation(ctx, tx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedByID != actingUserID && inv.InvitedUserID != actingUserID {
		return nil, ErrNotParticipant
	}

	var postStatus string
	if err := tx.QueryRow(ctx, `SELECT status FROM posts WHERE id = $1`, inv.PostID).Scan(&postStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if postStatus != "CLOSED" {
		return nil, fmt.Errorf("%w (post status: %s)", ErrPostNotClosed, postStatus)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invitations
		SET status = $2, responded_at = NOW()
		WHERE id = $1
	`, invitationID, StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to disconnect invitation: %w", err)
	}

	if err := removeTeamMember(ctx, tx, inv.PostID, inv.InvitedUserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetDetails(ctx, invitationID)
}

// ClosePost closes an OPEN post and disconnects every ACCEPTED invitation
// for it in a single transaction: the invitations become CANCELLED with a
// refreshed responded_at, the whole team is removed, and the post moves to
// CLOSED. Only the post author may close. Closing a post that is not OPEN
// fails.
func (s *Service) ClosePost(ctx context.Context, postID, actingUserID uuid.UUID) (*ClosureResult, error) {
	return s.closePost(ctx, postID, &actingUserID)
}

// CloseExpiredPosts closes every OPEN post whose deadline has passed,
// applying the same cascade as ClosePost. It returns the number of posts
// closed and the number of connections disconnected. Used by the deadline
// sweeper; no author check applies.
func (s *Service) CloseExpiredPosts(ctx context.Context) (postsClosed, disconnected int, err error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM posts
		WHERE status = 'OPEN' AND deadline IS NOT NULL AND deadline < NOW()
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list expired posts: %w", err)
	}
	defer rows.Close()

	var expired []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return 0, 0, fmt.Errorf("failed to scan expired post: %w", err)
		}
		expired = append(expired, id)
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("error iterating expired posts: %w", err)
	}

	for _, id := range expired {
		result, err := s.closePost(ctx, id, nil)
		if err != nil {
			// The post may have been closed concurrently; skip it.
			if errors.Is(err, ErrPostNotOpen) || errors.Is(err, ErrPostNotFound) {
				continue
			}
			return postsClosed, disconnected, err
		}
		postsClosed++
		disconnected += result.DisconnectedConnections
	}

	return postsClosed, disconnected, nil
}

// closePost runs the closure cascade. When actingUserID is non-nil it must
// match the post author. The accepted-invitation set is re-checked under
// the post row lock, not from any earlier snapshot.
func (s *Service) closePost(ctx context.Context, postID uuid.UUID, actingUserID *uuid.UUID) (*ClosureResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var authorID uuid.UUID
	var postStatus string
	err = tx.QueryRow(ctx, `
		SELECT author_id, status FROM posts WHERE id = $1 FOR UPDATE
	`, postID).Scan(&authorID, &postStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	if actingUserID != nil && authorID != *actingUserID {
		return nil, ErrNotAuthor
	}
	if postStatus != "OPEN" {
		return nil, fmt.Errorf("%w (current status: %s)", ErrPostNotOpen, postStatus)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE invitations
		SET status = $2, responded_at = NOW()
		WHERE post_id = $1 AND status = $3
	`, postID, StatusCancelled, StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to disconnect invitations: %w", err)
	}
	disconnectedCount := int(tag.RowsAffected())

	if err := removeTeamForPost(ctx, tx, postID); err != nil {
		return nil, err
	}

	result := &ClosureResult{
		PostID:                  postID,
		Status:                  "CLOSED",
		DisconnectedConnections: disconnectedCount,
	}
	err = tx.QueryRow(ctx, `
		UPDATE posts
		SET status = 'CLOSED', closed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING closed_at
	`, postID).Scan(&result.ClosedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to close post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// lockInvitation loads an invitation row under FOR UPDATE so the caller's
// read-check-write sequence is serialized against concurrent transitions.
func lockInvitation(ctx context.Context, tx pgx.Tx, invitationID uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := tx.QueryRow(ctx, `
		SELECT id, post_id, invited_by_id, invited_user_id, message, status, created_at, responded_at
		FROM invitations
		WHERE id = $1
		FOR UPDATE
	`, invitationID).Scan(
		&inv.ID,
		&inv.PostID,
		&inv.InvitedByID,
		&inv.InvitedUserID,
		&inv.Message,
		&inv.Status,
		&inv.CreatedAt,
		&inv.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	if !inv.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, inv.Status)
	}
	return &inv, nil
}
