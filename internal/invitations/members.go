package invitations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Team membership is kept in lockstep with ACCEPTED invitations: a row is
// created when an invitation is accepted and removed when the connection is
// disconnected, always inside the same transaction as the invitation update.

// addTeamMember inserts a team membership row. An already existing
// membership for (postID, userID) is not an error: accepting an
// invitation must never fail because the user is already on the team.
// Any other store failure propagates.
func addTeamMember(ctx context.Context, tx pgx.Tx, postID, userID uuid.UUID, role TeamRole) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO team_members (post_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`, postID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to create team membership: %w", err)
	}
	return nil
}

// removeTeamMember deletes the membership row(s) for (postID, userID).
// A no-op if none exist.
func removeTeamMember(ctx context.Context, tx pgx.Tx, postID, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM team_members
		WHERE post_id = $1 AND user_id = $2
	`, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove team membership: %w", err)
	}
	return nil
}

// removeTeamForPost deletes every membership row for the post. Used by
// the post closure cascade.
func removeTeamForPost(ctx context.Context, tx pgx.Tx, postID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM team_members
		WHERE post_id = $1
	`, postID)
	if err != nil {
		return fmt.Errorf("failed to remove post team memberships: %w", err)
	}
	return nil
}
