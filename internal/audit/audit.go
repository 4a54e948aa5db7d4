package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	EventUserSignup             = "user.signup"
	EventLoginFailed            = "auth.login_failed"
	EventPostCreated            = "post.created"
	EventPostClosed             = "post.closed"
	EventInvitationSent         = "invitation.sent"
	EventInvitationAccepted     = "invitation.accepted"
	EventInvitationRejected     = "invitation.rejected"
	EventInvitationCancelled    = "invitation.cancelled"
	EventInvitationDisconnected = "invitation.disconnected"
)

// Event represents an audit log entry.
type Event struct {
	ID          uuid.UUID              `db:"id"`
	PostID      uuid.NullUUID          `db:"post_id"`
	ActorUserID uuid.NullUUID          `db:"actor_user_id"`
	Action      string                 `db:"action"`
	Meta        map[string]interface{} `db:"meta"`
	CreatedAt   time.Time              `db:"created_at"`
}

// Writer provides methods to write audit log entries.
type Writer struct {
	pool *pgxpool.Pool
}

func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// LogParams contains parameters for logging an audit event.
type LogParams struct {
	PostID      *uuid.UUID
	ActorUserID *uuid.UUID
	Action      string
	Meta        map[string]interface{}
}

func (w *Writer) Log(ctx context.Context, params LogParams) error {
	metaJSON := []byte("{}")
	if params.Meta != nil {
		b, err := json.Marshal(params.Meta)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal audit meta")
			return err
		}
		metaJSON = b
	}

	query := `
		INSERT INTO audit_log (post_id, actor_user_id, action, meta)
		VALUES ($1, $2, $3, $4)
	`

	postID := toNullUUID(params.PostID)
	actorUserID := toNullUUID(params.ActorUserID)

	_, err := w.pool.Exec(ctx, query, postID, actorUserID, params.Action, metaJSON)
	if err != nil {
		log.Error().Err(err).Str("action", params.Action).Msg("Failed to write audit log")
		return err
	}

	log.Info().
		Str("action", params.Action).
		Interface("post_id", params.PostID).
		Interface("actor_user_id", params.ActorUserID).
		Msg("Audit event logged")

	return nil
}

// LogUserSignup records a successful registration.
func (w *Writer) LogUserSignup(ctx context.Context, userID uuid.UUID, email string) error {
	return w.Log(ctx, LogParams{
		ActorUserID: &userID,
		Action:      EventUserSignup,
		Meta:        map[string]interface{}{"email": email},
	})
}

// LogLoginFailed records a failed login attempt.
func (w *Writer) LogLoginFailed(ctx context.Context, email string) error {
	return w.Log(ctx, LogParams{
		Action: EventLoginFailed,
		Meta:   map[string]interface{}{"email": email},
	})
}

// LogPostCreated records post creation.
func (w *Writer) LogPostCreated(ctx context.Context, postID, authorID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		PostID:      &postID,
		ActorUserID: &authorID,
		Action:      EventPostCreated,
	})
}

// LogPostClosed records post closure and how many connections it disconnected.
func (w *Writer) LogPostClosed(ctx context.Context, postID, actorID uuid.UUID, disconnected int) error {
	return w.Log(ctx, LogParams{
		PostID:      &postID,
		ActorUserID: &actorID,
		Action:      EventPostClosed,
		Meta:        map[string]interface{}{"disconnected_connections": disconnected},
	})
}

// LogInvitation records an invitation lifecycle event.
func (w *Writer) LogInvitation(ctx context.Context, action string, postID, actorID, invitationID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		PostID:      &postID,
		ActorUserID: &actorID,
		Action:      action,
		Meta:        map[string]interface{}{"invitation_id": invitationID.String()},
	})
}

func toNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
