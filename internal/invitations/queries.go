package invitations

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusconnect/campusconnect/internal/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// detailsColumns is the join projection shared by every enriched
// invitation query. Aliases: i = invitations, p = posts, s = sender
// (users), u = invited user (users).
const detailsColumns = `
	i.id, i.post_id, i.invited_by_id, i.invited_user_id, i.message, i.status, i.created_at, i.responded_at,
	p.id, p.title, p.category, p.status,
	s.id, s.first_name, s.last_name, s.email, s.department, s.profile_picture,
	u.id, u.first_name, u.last_name, u.email, u.department, u.profile_picture`

const detailsFrom = `
	FROM invitations i
	JOIN posts p ON p.id = i.post_id
	JOIN users s ON s.id = i.invited_by_id
	JOIN users u ON u.id = i.invited_user_id`

func scanDetails(row pgx.Row) (*Details, error) {
	var d Details
	err := row.Scan(
		&d.ID,
		&d.PostID,
		&d.InvitedByID,
		&d.InvitedUserID,
		&d.Message,
		&d.Status,
		&d.CreatedAt,
		&d.RespondedAt,
		&d.Post.ID,
		&d.Post.Title,
		&d.Post.Category,
		&d.Post.Status,
		&d.InvitedBy.ID,
		&d.InvitedBy.FirstName,
		&d.InvitedBy.LastName,
		&d.InvitedBy.Email,
		&d.InvitedBy.Department,
		&d.InvitedBy.ProfilePicture,
		&d.InvitedUser.ID,
		&d.InvitedUser.FirstName,
		&d.InvitedUser.LastName,
		&d.InvitedUser.Email,
		&d.InvitedUser.Department,
		&d.InvitedUser.ProfilePicture,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDetails returns one invitation enriched with its post summary and
// both parties' user summaries. Reads are not restricted to the parties.
func (s *Service) GetDetails(ctx context.Context, invitationID uuid.UUID) (*Details, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+detailsColumns+detailsFrom+`
		WHERE i.id = $1
	`, invitationID)

	details, err := scanDetails(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return details, nil
}

// ListSent returns invitations sent by the user, newest first, optionally
// filtered by status, with the total matching count for pagination.
func (s *Service) ListSent(ctx context.Context, userID uuid.UUID, status *Status, params pagination.Params) ([]Details, int, error) {
	return s.list(ctx, "i.invited_by_id", userID, status, params)
}

// ListReceived returns invitations received by the user, newest first,
// optionally filtered by status, with the total matching count.
func (s *Service) ListReceived(ctx context.Context, userID uuid.UUID, status *Status, params pagination.Params) ([]Details, int, error) {
	return s.list(ctx, "i.invited_user_id", userID, status, params)
}

func (s *Service) list(ctx context.Context, userColumn string, userID uuid.UUID, status *Status, params pagination.Params) ([]Details, int, error) {
	if status != nil && !status.IsValid() {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
	}

	where := userColumn + " = $1"
	args := []any{userID}
	if status != nil {
		where += " AND i.status = $2"
		args = append(args, *status)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM invitations i WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invitations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT%s%s
		WHERE %s
		ORDER BY i.created_at DESC
		LIMIT $%d OFFSET $%d
	`, detailsColumns, detailsFrom, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	list := []Details{}
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invitation: %w", err)
		}
		list = append(list, *details)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating invitations: %w", err)
	}

	return list, total, nil
}

// PostConnections returns the post's active connections: invitations that
// are currently ACCEPTED, most recently accepted first.
func (s *Service) PostConnections(ctx context.Context, postID uuid.UUID) ([]Details, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT`+detailsColumns+detailsFrom+`
		WHERE i.post_id = $1 AND i.status = $2
		ORDER BY i.responded_at DESC
	`, postID, StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	list := []Details{}
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		list = append(list, *details)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return list, nil
}

// TeamMembers returns the post's current team, longest-serving first.
func (s *Service) TeamMembers(ctx context.Context, postID uuid.UUID) ([]TeamMember, error) {
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

	members := []TeamMember{}
	for rows.Next() {
		var m TeamMember
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

// Stats returns the user's invitation counters. The four counts are
// independent queries over live data; they are not required to be a
// consistent snapshot.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	var stats Stats

	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM invitations WHERE invited_by_id = $1
	`, userID).Scan(&stats.TotalSent); err != nil {
		return nil, fmt.Errorf("failed to count sent invitations: %w", err)
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM invitations WHERE invited_user_id = $1
	`, userID).Scan(&stats.TotalReceived); err != nil {
		return nil, fmt.Errorf("failed to count received invitations: %w", err)
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM invitations
		WHERE invited_user_id = $1 AND status = $2
	`, userID, StatusAccepted).Scan(&stats.AcceptedConnections); err != nil {
		return nil, fmt.Errorf("failed to count accepted connections: %w", err)
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM invitations
		WHERE invited_user_id = $1 AND status = $2
	`, userID, StatusPending).Scan(&stats.PendingInvitations); err != nil {
		return nil, fmt.Errorf("failed to count pending invitations: %w", err)
	}

	return &stats, nil
}
