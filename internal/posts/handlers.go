package posts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusconnect/campusconnect/internal/apperrors"
	"github.com/campusconnect/campusconnect/internal/audit"
	"github.com/campusconnect/campusconnect/internal/auth"
	"github.com/campusconnect/campusconnect/internal/invitations"
	"github.com/campusconnect/campusconnect/internal/pagination"
	"github.com/campusconnect/campusconnect/internal/users"
	"github.com/campusconnect/campusconnect/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound), errors.Is(err, users.ErrUserNotFound):
		apperrors.WriteNotFound(w, r, err.Error())
	case errors.Is(err, ErrNotAuthor):
		apperrors.WriteForbidden(w, r, err.Error())
	case errors.Is(err, ErrPostClosed):
		apperrors.WriteInvalidState(w, r, err.Error())
	default:
		log.Error().Err(err).Msg("Post operation failed")
		apperrors.WriteInternalError(w, r, "An unexpected error occurred")
	}
}

func validateInput(title, description string, skills []string) error {
	if err := validation.ValidateTitle(title); err != nil {
		return err
	}
	if err := validation.ValidateDescription(description); err != nil {
		return err
	}
	return validation.ValidateSkills(skills)
}

// HandleCreate creates a new collaboration post.
func HandleCreate(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		var input CreateInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if err := validateInput(input.Title, input.Description, input.RequiredSkills); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		if input.Category != "" && !input.Category.IsValid() {
			apperrors.WriteBadRequest(w, r, "Invalid category")
			return
		}
		if input.Visibility != "" && !input.Visibility.IsValid() {
			apperrors.WriteBadRequest(w, r, "Invalid visibility")
			return
		}
		input.RequiredSkills = validation.NormalizeSkills(input.RequiredSkills)

		details, err := svc.Create(r.Context(), userID, input)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if err := auditor.LogPostCreated(r.Context(), details.ID, userID); err != nil {
			log.Warn().Err(err).Msg("Failed to audit post creation")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, "Post created successfully", details)
	}
}

// HandleList returns published posts, filterable by search text, category
// and status.
func HandleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := Filter{Search: r.URL.Query().Get("search")}

		if raw := r.URL.Query().Get("category"); raw != "" {
			category := Category(raw)
			if !category.IsValid() {
				apperrors.WriteBadRequest(w, r, "Invalid category filter")
				return
			}
			filter.Category = &category
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := PostStatus(raw)
			if !status.IsValid() {
				apperrors.WriteBadRequest(w, r, "Invalid status filter")
				return
			}
			filter.Status = &status
		}

		params := pagination.FromRequest(r)
		list, total, err := svc.List(r.Context(), filter, params)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		meta := pagination.NewMeta(params, total)
		apperrors.WritePaginated(w, r, "Posts retrieved successfully", list, apperrors.Pagination(meta))
	}
}

// HandleListMine returns the authenticated user's own posts, drafts
// included.
func HandleListMine(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		filter := Filter{AuthorID: &userID, IncludeUnpublished: true}
		params := pagination.FromRequest(r)

		list, total, err := svc.List(r.Context(), filter, params)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		meta := pagination.NewMeta(params, total)
		apperrors.WritePaginated(w, r, "Posts retrieved successfully", list, apperrors.Pagination(meta))
	}
}

// HandleGet returns one post and bumps its view counter.
func HandleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		details, err := svc.GetByID(r.Context(), postID, true)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Post retrieved successfully", details)
	}
}

// HandleUpdate applies a partial update to the user's own post.
func HandleUpdate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		var input UpdateInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if input.Title != nil {
			if err := validation.ValidateTitle(*input.Title); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
		}
		if input.Description != nil {
			if err := validation.ValidateDescription(*input.Description); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
		}
		if input.Category != nil && !input.Category.IsValid() {
			apperrors.WriteBadRequest(w, r, "Invalid category")
			return
		}
		if input.Visibility != nil && !input.Visibility.IsValid() {
			apperrors.WriteBadRequest(w, r, "Invalid visibility")
			return
		}
		if input.RequiredSkills != nil {
			if err := validation.ValidateSkills(input.RequiredSkills); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
			input.RequiredSkills = validation.NormalizeSkills(input.RequiredSkills)
		}

		details, err := svc.Update(r.Context(), postID, userID, input)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Post updated successfully", details)
	}
}

// HandleDelete removes the user's own post.
func HandleDelete(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		if err := svc.Delete(r.Context(), postID, userID); err != nil {
			writeServiceError(w, r, err)
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Post deleted successfully", nil)
	}
}

// HandleMatched returns open posts whose required skills overlap the
// user's skills, paginated over the matched set.
func HandleMatched(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		matched, err := svc.Matched(r.Context(), userID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		params := pagination.FromRequest(r)
		total := len(matched)
		start := params.Offset()
		if start > total {
			start = total
		}
		end := start + params.Limit
		if end > total {
			end = total
		}

		meta := pagination.NewMeta(params, total)
		apperrors.WritePaginated(w, r, "Matched posts retrieved successfully", matched[start:end], apperrors.Pagination(meta))
	}
}

// HandleClose closes the user's own post, disconnecting every accepted
// invitation and clearing the team in one transaction.
func HandleClose(invSvc *invitations.Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		result, err := invSvc.ClosePost(r.Context(), postID, userID)
		if err != nil {
			switch {
			case errors.Is(err, invitations.ErrPostNotFound):
				apperrors.WriteNotFound(w, r, err.Error())
			case errors.Is(err, invitations.ErrNotAuthor):
				apperrors.WriteForbidden(w, r, err.Error())
			case errors.Is(err, invitations.ErrPostNotOpen):
				apperrors.WriteInvalidState(w, r, err.Error())
			default:
				log.Error().Err(err).Msg("Post closure failed")
				apperrors.WriteInternalError(w, r, "An unexpected error occurred")
			}
			return
		}

		if err := auditor.LogPostClosed(r.Context(), postID, userID, result.DisconnectedConnections); err != nil {
			log.Warn().Err(err).Msg("Failed to audit post closure")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Post closed successfully", result)
	}
}
