package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-video-backend/internal/config"
	"go-video-backend/internal/handler"
	"go-video-backend/internal/middleware"
)

const usersPrefix = "/api/v1/users"

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Audit  *handler.AuditHandler
	Health *handler.HealthHandler
	// Media serves locally stored uploads under /media when set.
	Media http.Handler
}

func New(cfg *config.Config, logger *slog.Logger, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(
		cfg.RateLimitRPM,
		cfg.AuthRateLimitRPM,
		usersPrefix+"/login",
		usersPrefix+"/register",
		usersPrefix+"/refresh-token",
		usersPrefix+"/change-password",
	)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	if h.Media != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", h.Media))
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/users", func(users chi.Router) {
			users.Post("/register", h.User.Register)
			users.Post("/login", h.Auth.Login)
			users.Post("/refresh-token", h.Auth.Refresh)

			users.Group(func(private chi.Router) {
				private.Use(authMiddleware.RequireAuth)

				private.Post("/logout", h.Auth.Logout)
				private.Post("/change-password", h.Auth.ChangePassword)
				private.Get("/current-user", h.User.Me)
				private.Patch("/update-account", h.User.UpdateAccount)
				private.Patch("/avatar", h.User.UpdateAvatar)
				private.Patch("/cover-image", h.User.UpdateCoverImage)
			})
		})

		api.With(authMiddleware.RequireAuth).Get("/audit", h.Audit.List)
	})

	return r
}
