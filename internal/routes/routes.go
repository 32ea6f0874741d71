package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BradenHooton/revue/internal/auth"
	"github.com/BradenHooton/revue/internal/handlers"
	"github.com/BradenHooton/revue/internal/middleware"
	"github.com/BradenHooton/revue/internal/models"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth   *handlers.AuthHandler
	Users  *handlers.UserHandler
	Admin  *handlers.AdminHandler
	Review *handlers.ReviewHandler
	Health *handlers.HealthHandler
}

// Guard holds what the bearer-token middleware needs.
type Guard struct {
	Tokens auth.TokenValidator
	Users  auth.UserLookup
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	guard Guard,
	authLimit middleware.RateLimitConfig,
	ipConfig *pkghttp.IPConfig,
	logger *slog.Logger,
) {
	authenticate := auth.Authenticate(guard.Tokens, guard.Users, logger)

	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Get("/health", h.Health.Health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints get a tighter limit than the global one
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(authLimit, ipConfig))
				h.Auth.RegisterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				h.Auth.RegisterProtectedRoutes(r)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Get("/dashboard", h.Admin.GetDashboardStats)
			r.Get("/metrics", h.Admin.GetSystemMetrics)
			h.Users.RegisterRoutes(r)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/review", h.Review.Review)
		})
	})
}
