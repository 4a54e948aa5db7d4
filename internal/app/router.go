package app

import (
	"net/http"

	"github.com/campusconnect/campusconnect/internal/apperrors"
	"github.com/campusconnect/campusconnect/internal/audit"
	"github.com/campusconnect/campusconnect/internal/auth"
	"github.com/campusconnect/campusconnect/internal/config"
	"github.com/campusconnect/campusconnect/internal/invitations"
	"github.com/campusconnect/campusconnect/internal/posts"
	"github.com/campusconnect/campusconnect/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(pool *pgxpool.Pool, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	isProduction := !cfg.IsDev()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.AuthMiddleware(cfg.JWTSecret))

	// Shared services
	auditor := audit.NewWriter(pool)
	invitationSvc := invitations.NewService(pool)
	postSvc := posts.NewService(pool)

	// Health check routes (no authentication required)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(pool))

	// API routes - Authentication
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware)

		r.Get("/csrf", auth.HandleCSRF(isProduction))
		r.Post("/signup", auth.HandleSignup(pool, auditor, cfg.JWTSecret, cfg.SessionDays, isProduction))
		r.With(LoginRateLimitMiddleware(cfg.LoginRateLimitRPM)).
			Post("/login", auth.HandleLogin(pool, auditor, cfg.JWTSecret, cfg.SessionDays, isProduction))
		r.With(auth.RequireAuth).Post("/logout", auth.HandleLogout())
	})

	// API routes - Users (require authentication)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware)
		r.Use(auth.RequireAuth)

		r.Get("/me", users.HandleGetMe(pool))
		r.Put("/me", users.HandleUpdateMe(pool))
		r.Get("/{user_id}", users.HandleGetUser(pool))
	})

	// API routes - Posts (require authentication)
	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware)
		r.Use(auth.RequireAuth)

		r.Post("/", posts.HandleCreate(postSvc, auditor))
		r.Get("/", posts.HandleList(postSvc))
		r.Get("/mine", posts.HandleListMine(postSvc))
		r.Get("/matched", posts.HandleMatched(postSvc))
		r.Get("/{post_id}", posts.HandleGet(postSvc))
		r.Put("/{post_id}", posts.HandleUpdate(postSvc))
		r.Delete("/{post_id}", posts.HandleDelete(postSvc))
		r.Patch("/{post_id}/close", posts.HandleClose(invitationSvc, auditor))
		r.Get("/{post_id}/connections", invitations.HandlePostConnections(invitationSvc))
	})

	// API routes - Invitations (require authentication)
	r.Route("/api/v1/invitations", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware)
		r.Use(auth.RequireAuth)

		r.Post("/", invitations.HandleSend(invitationSvc, auditor))
		r.Get("/sent", invitations.HandleListSent(invitationSvc))
		r.Get("/received", invitations.HandleListReceived(invitationSvc))
		r.Get("/stats", invitations.HandleStats(invitationSvc))
		r.Get("/{invitation_id}", invitations.HandleGet(invitationSvc))
		r.Patch("/{invitation_id}/accept", invitations.HandleAccept(invitationSvc, auditor))
		r.Patch("/{invitation_id}/reject", invitations.HandleReject(invitationSvc, auditor))
		r.Patch("/{invitation_id}/cancel", invitations.HandleCancel(invitationSvc, auditor))
		r.Patch("/{invitation_id}/disconnect", invitations.HandleDisconnect(invitationSvc, auditor))
	})

	return r
}

// handleHealthz returns a simple liveness check.
// Always returns 200 OK if the service is running.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, "ok", map[string]string{
		"status": "ok",
	})
}

// handleReadyz returns a readiness check that includes database connectivity.
// Returns 200 OK if the service is ready to accept traffic, 503 if not.
func handleReadyz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			apperrors.WriteServiceUnavailable(w, r, "Database unavailable")
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, "ready", map[string]string{
			"status": "ready",
		})
	}
}
