package invitations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusconnect/campusconnect/internal/apperrors"
	"github.com/campusconnect/campusconnect/internal/audit"
	"github.com/campusconnect/campusconnect/internal/auth"
	"github.com/campusconnect/campusconnect/internal/pagination"
	"github.com/campusconnect/campusconnect/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// writeServiceError maps service sentinel errors onto the API error
// envelope. Unknown errors become a 500 without leaking detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvitationNotFound),
		errors.Is(err, ErrPostNotFound),
		errors.Is(err, ErrUserNotFound):
		apperrors.WriteNotFound(w, r, err.Error())
	case errors.Is(err, ErrNotInvitee),
		errors.Is(err, ErrNotSender),
		errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrNotAuthor):
		apperrors.WriteForbidden(w, r, err.Error())
	case errors.Is(err, ErrInvitePending):
		apperrors.WriteConflict(w, r, err.Error())
	case errors.Is(err, ErrNotPending),
		errors.Is(err, ErrPostNotClosed),
		errors.Is(err, ErrPostNotOpen):
		apperrors.WriteInvalidState(w, r, err.Error())
	default:
		log.Error().Err(err).Msg("Invitation operation failed")
		apperrors.WriteInternalError(w, r, "An unexpected error occurred")
	}
}

// SendRequest is the payload for sending an invitation
type SendRequest struct {
	PostID        uuid.UUID `json:"post_id"`
	InvitedUserID uuid.UUID `json:"invited_user_id"`
	Message       *string   `json:"message,omitempty"`
}

// HandleSend sends a collaboration invitation to another user.
func HandleSend(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if req.PostID == uuid.Nil {
			apperrors.WriteBadRequest(w, r, "post_id is required")
			return
		}
		if req.InvitedUserID == uuid.Nil {
			apperrors.WriteBadRequest(w, r, "invited_user_id is required")
			return
		}
		if req.InvitedUserID == userID {
			apperrors.WriteBadRequest(w, r, "You cannot invite yourself")
			return
		}
		if req.Message != nil {
			if err := validation.ValidateMessage(*req.Message); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
		}

		details, err := svc.Send(r.Context(), req.PostID, req.InvitedUserID, userID, req.Message)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if err := auditor.LogInvitation(r.Context(), audit.EventInvitationSent, details.PostID, userID, details.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to audit invitation send")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, "Invitation sent successfully", details)
	}
}

// HandleGet returns one invitation with its post and party summaries.
func HandleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invitationID, err := uuid.Parse(chi.URLParam(r, "invitation_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invitation ID")
			return
		}

		details, err := svc.GetDetails(r.Context(), invitationID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Invitation retrieved successfully", details)
	}
}

// handleTransition is the shared shape of accept, reject, cancel and
// disconnect: parse the invitation ID, apply the transition as the
// authenticated user, audit, respond with the updated invitation.
func handleTransition(auditor *audit.Writer, action, message string, apply func(ctx context.Context, invitationID, userID uuid.UUID) (*Details, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		invitationID, err := uuid.Parse(chi.URLParam(r, "invitation_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invitation ID")
			return
		}

		details, err := apply(r.Context(), invitationID, userID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if err := auditor.LogInvitation(r.Context(), action, details.PostID, userID, details.ID); err != nil {
			log.Warn().Err(err).Str("action", action).Msg("Failed to audit invitation transition")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, message, details)
	}
}

// HandleAccept accepts a pending invitation and joins the post's team.
func HandleAccept(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return handleTransition(auditor, audit.EventInvitationAccepted, "Invitation accepted successfully", svc.Accept)
}

// HandleReject rejects a pending invitation.
func HandleReject(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return handleTransition(auditor, audit.EventInvitationRejected, "Invitation rejected successfully", svc.Reject)
}

// HandleCancel cancels a pending invitation the user sent.
func HandleCancel(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return handleTransition(auditor, audit.EventInvitationCancelled, "Invitation cancelled successfully", svc.Cancel)
}

// HandleDisconnect ends a connection after the post has closed.
func HandleDisconnect(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return handleTransition(auditor, audit.EventInvitationDisconnected, "Connection disconnected successfully", svc.Disconnect)
}

// statusFilter parses the optional ?status= query parameter.
func statusFilter(r *http.Request) (*Status, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	status := Status(raw)
	if !status.IsValid() {
		return nil, false
	}
	return &status, true
}

// HandleListSent returns invitations the user has sent, paginated.
func HandleListSent(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		status, ok := statusFilter(r)
		if !ok {
			apperrors.WriteBadRequest(w, r, "Invalid status filter")
			return
		}
		params := pagination.FromRequest(r)

		list, total, err := svc.ListSent(r.Context(), userID, status, params)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		meta := pagination.NewMeta(params, total)
		apperrors.WritePaginated(w, r, "Sent invitations retrieved successfully", list, apperrors.Pagination(meta))
	}
}

// HandleListReceived returns invitations the user has received, paginated.
func HandleListReceived(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		status, ok := statusFilter(r)
		if !ok {
			apperrors.WriteBadRequest(w, r, "Invalid status filter")
			return
		}
		params := pagination.FromRequest(r)

		list, total, err := svc.ListReceived(r.Context(), userID, status, params)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		meta := pagination.NewMeta(params, total)
		apperrors.WritePaginated(w, r, "Received invitations retrieved successfully", list, apperrors.Pagination(meta))
	}
}

// HandleStats returns the user's invitation counters.
func HandleStats(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		stats, err := svc.Stats(r.Context(), userID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Invitation stats retrieved successfully", stats)
	}
}

// HandlePostConnections returns a post's active connections.
func HandlePostConnections(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		connections, err := svc.PostConnections(r.Context(), postID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Connections retrieved successfully", connections)
	}
}
