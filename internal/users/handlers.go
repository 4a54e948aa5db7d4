package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusconnect/campusconnect/internal/apperrors"
	"github.com/campusconnect/campusconnect/internal/auth"
	"github.com/campusconnect/campusconnect/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// HandleGetMe handles GET /api/v1/users/me
func HandleGetMe(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		service := NewService(pool)
		user, err := service.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				apperrors.WriteNotFound(w, r, "User not found")
				return
			}
			log.Error().Err(err).Msg("Failed to load profile")
			apperrors.WriteInternalError(w, r, "Failed to load profile")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Profile retrieved successfully", user)
	}
}

// HandleUpdateMe handles PUT /api/v1/users/me
func HandleUpdateMe(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var update ProfileUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if update.Skills != nil {
			if err := validation.ValidateSkills(update.Skills); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
			update.Skills = validation.NormalizeSkills(update.Skills)
		}

		service := NewService(pool)
		user, err := service.UpdateProfile(ctx, userID, update)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				apperrors.WriteNotFound(w, r, "User not found")
				return
			}
			log.Error().Err(err).Msg("Failed to update profile")
			apperrors.WriteInternalError(w, r, "Failed to update profile")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Profile updated successfully", user)
	}
}

// HandleGetUser handles GET /api/v1/users/{user_id}
func HandleGetUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userIDStr := chi.URLParam(r, "user_id")
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid user ID")
			return
		}

		service := NewService(pool)
		user, err := service.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				apperrors.WriteNotFound(w, r, "User not found")
				return
			}
			log.Error().Err(err).Msg("Failed to load user")
			apperrors.WriteInternalError(w, r, "Failed to load user")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "User retrieved successfully", user)
	}
}
