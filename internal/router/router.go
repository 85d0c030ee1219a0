package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-dive-auth/internal/access"
	"go-dive-auth/internal/config"
	"go-dive-auth/internal/handler"
	"go-dive-auth/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Admin   *handler.AdminHandler
	Health  *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", h.Auth.Signup)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth, authMiddleware.Require(access.ScopeAuthenticated)).Get("/me", h.Auth.Me)
			auth.With(authMiddleware.RequireAuth, authMiddleware.Require(access.ScopeAuthenticated)).Post("/logout", h.Auth.Logout)
		})

		api.Group(func(user chi.Router) {
			user.Use(authMiddleware.RequireAuth, authMiddleware.Require(access.ScopeAuthenticated))
			user.Get("/profile", h.Profile.Get)
			user.Put("/profile", h.Profile.Update)
			user.Post("/change-password", h.Profile.ChangePassword)
			user.Get("/dashboard", h.Profile.Dashboard)
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.Require(access.ScopeOperator)).Get("/operator/dashboard", h.Profile.OperatorDashboard)

		api.Route("/admin/dive-operators", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.Require(access.ScopeAdmin))
			admin.Get("/", h.Admin.ListOperators)
			admin.Get("/{id}", h.Admin.GetOperator)
			admin.Post("/{id}/approve", h.Admin.Approve)
			admin.Post("/{id}/reject", h.Admin.Reject)
			admin.Post("/{id}/reset", h.Admin.Reset)
		})
	})

	return r
}
