package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/campusconnect/campusconnect/internal/apperrors"
	"github.com/campusconnect/campusconnect/internal/audit"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// SessionResponse is returned by both signup and login
type SessionResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

// HandleSignup processes user registration
func HandleSignup(pool *pgxpool.Pool, auditor *audit.Writer, jwtSecret string, sessionDays int, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		req.FirstName = strings.TrimSpace(req.FirstName)
		req.LastName = strings.TrimSpace(req.LastName)
		req.Role = strings.ToUpper(strings.TrimSpace(req.Role))

		if !isValidEmail(req.Email) {
			apperrors.WriteBadRequest(w, r, "Invalid email address")
			return
		}
		if len(req.Password) < 8 {
			apperrors.WriteBadRequest(w, r, "Password must be at least 8 characters")
			return
		}
		if req.FirstName == "" || req.LastName == "" {
			apperrors.WriteBadRequest(w, r, "First and last name are required")
			return
		}
		if req.Role == "" {
			req.Role = "STUDENT"
		}
		if req.Role != "STUDENT" && req.Role != "FACULTY" {
			apperrors.WriteBadRequest(w, r, "Role must be STUDENT or FACULTY")
			return
		}

		passwordHash, err := HashPassword(req.Password)
		if err != nil {
			log.Error().Err(err).Msg("Failed to hash password")
			apperrors.WriteInternalError(w, r, "Failed to create account")
			return
		}

		var userID uuid.UUID
		query := `
			INSERT INTO users (email, password_hash, first_name, last_name, role)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`

		err = pool.QueryRow(r.Context(), query, req.Email, passwordHash, req.FirstName, req.LastName, req.Role).Scan(&userID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
				apperrors.WriteConflict(w, r, "Email address already registered")
				return
			}

			log.Error().Err(err).Str("email", req.Email).Msg("Failed to insert user")
			apperrors.WriteInternalError(w, r, "Failed to create account")
			return
		}

		if err := auditor.LogUserSignup(r.Context(), userID, req.Email); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to log audit event")
		}

		token, err := CreateToken(userID, req.Email, req.Role, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		SetSessionCookie(w, token, sessionDays, isProduction)

		log.Info().
			Str("user_id", userID.String()).
			Str("email", req.Email).
			Msg("User signed up successfully")

		apperrors.WriteSuccess(w, r, http.StatusCreated, "Account created successfully", SessionResponse{
			UserID: userID,
			Email:  req.Email,
			Role:   req.Role,
		})
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin processes user authentication
func HandleLogin(pool *pgxpool.Pool, auditor *audit.Writer, jwtSecret string, sessionDays int, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			apperrors.WriteUnauthorized(w, r, "Invalid credentials")
			return
		}

		var userID uuid.UUID
		var passwordHash, role string
		query := `SELECT id, password_hash, role FROM users WHERE email = $1`

		err := pool.QueryRow(r.Context(), query, req.Email).Scan(&userID, &passwordHash, &role)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// User not found - return generic error
				log.Debug().Str("email", req.Email).Msg("Login failed: user not found")
				if err := auditor.LogLoginFailed(r.Context(), req.Email); err != nil {
					log.Error().Err(err).Msg("Failed to log audit event")
				}
				apperrors.WriteUnauthorized(w, r, "Invalid credentials")
				return
			}
			log.Error().Err(err).Str("email", req.Email).Msg("Failed to query user")
			apperrors.WriteInternalError(w, r, "Login failed")
			return
		}

		if err := VerifyPassword(passwordHash, req.Password); err != nil {
			// Wrong password - return generic error
			log.Debug().Str("email", req.Email).Msg("Login failed: wrong password")
			if err := auditor.LogLoginFailed(r.Context(), req.Email); err != nil {
				log.Error().Err(err).Msg("Failed to log audit event")
			}
			apperrors.WriteUnauthorized(w, r, "Invalid credentials")
			return
		}

		token, err := CreateToken(userID, req.Email, role, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		SetSessionCookie(w, token, sessionDays, isProduction)

		log.Info().
			Str("user_id", userID.String()).
			Str("email", req.Email).
			Msg("User logged in successfully")

		apperrors.WriteSuccess(w, r, http.StatusOK, "Logged in successfully", SessionResponse{
			UserID: userID,
			Email:  req.Email,
			Role:   role,
		})
	}
}

// HandleLogout clears the session cookie
func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ClearSessionCookie(w)

		userID := GetUserID(r.Context())
		if userID != uuid.Nil {
			log.Info().Str("user_id", userID.String()).Msg("User logged out")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "Logged out successfully", nil)
	}
}

// HandleCSRF issues the CSRF cookie for the double-submit pattern and
// returns the token so clients can echo it in the X-CSRF-Token header.
// An existing cookie is reused rather than rotated.
func HandleCSRF(isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := GetCSRFCookie(r)
		if token == "" {
			var err error
			token, err = GenerateCSRFToken()
			if err != nil {
				log.Error().Err(err).Msg("Failed to generate CSRF token")
				apperrors.WriteInternalError(w, r, "Failed to generate token")
				return
			}
			SetCSRFCookie(w, token, isProduction)
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, "CSRF token issued", map[string]string{
			"csrf_token": token,
		})
	}
}

// isValidEmail validates email format using net/mail (RFC 5322 simplified)
func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
