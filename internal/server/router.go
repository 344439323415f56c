// Package server wires the admin HTTP API: chi routes, middleware and the http.Server lifecycle.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iudanet/chatgate/internal/server/handlers"
	"github.com/iudanet/chatgate/internal/server/middleware"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/internal/validation"
)

// Deps содержит сервисы, которые обслуживает API
type Deps struct {
	DB          handlers.Pinger
	Admins      middleware.AdminChecker
	Invitations handlers.Invitations
	Users       handlers.Users
	Roster      handlers.Roster
	Bans        handlers.Bans
	Credits     handlers.Credits
	Gate        handlers.Gate
	Index       handlers.Lookup
	Chats       handlers.Chats
	Audit       handlers.AuditLog
	RateLimiter *middleware.RateLimiter
	Version     string
	APIKeyHash  string
	JWT         handlers.JWTConfig
	APIActorID  int64
	Reward      int64
}

// NewRouter собирает маршруты /api/v1
func NewRouter(logger *slog.Logger, deps Deps) http.Handler {
	logger = logger.With(sl.Module("http"))
	v := validation.NewValidator()

	health := handlers.NewHealthHandler(logger, deps.DB, deps.Version)
	auth := handlers.NewAuthHandler(logger, v, deps.APIKeyHash, deps.APIActorID, deps.JWT)
	invitations := handlers.NewInvitationHandler(logger, v, deps.Invitations)
	users := handlers.NewUserHandler(logger, v, deps.Users, deps.Bans, deps.Credits)
	admins := handlers.NewAdminHandler(logger, deps.Roster)
	gate := handlers.NewGateHandler(logger, v, deps.Gate, deps.Index, deps.Reward)
	chats := handlers.NewChatHandler(logger, deps.Chats)
	audit := handlers.NewAuditHandler(logger, deps.Audit)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingWithSkip(logger, []string{"/api/v1/health"}))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware)
	}
	r.Use(chimw.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.Health)
		r.Post("/auth/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(logger, deps.JWT, deps.Admins))

			r.Post("/invitations", invitations.Mint)
			r.Get("/invitations", invitations.List)
			r.Post("/invitations/redeem", invitations.Redeem)
			r.Put("/quotas/{adminID}", invitations.SetQuota)
			r.Get("/quotas/{adminID}", invitations.GetQuota)

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Delete("/", users.Revoke)
				r.Post("/grant", users.Grant)
				r.Post("/ban", users.Ban)
				r.Delete("/ban", users.Unban)
				r.Post("/block", users.Block)
				r.Delete("/block", users.Unblock)
				r.Get("/credits", users.Credits)
				r.Post("/credits", users.TopUp)
			})

			r.Get("/admins", admins.List)
			r.Post("/admins/{userID}", admins.Add)
			r.Delete("/admins/{userID}", admins.Remove)

			r.Post("/gate/search", gate.Search)
			r.Post("/gate/contribute", gate.Contribute)

			r.Get("/chats", chats.List)
			r.Post("/chats/secrets", chats.IssueSecret)
			r.Delete("/chats/{chatID}", chats.Unauthorize)

			r.Get("/audit", audit.List)
		})
	})

	return r
}
