package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-jwt-auth/internal/config"
	"go-jwt-auth/internal/handler"
	"go-jwt-auth/internal/middleware"
	"go-jwt-auth/internal/service"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Audit  *handler.AuditHandler
	Sample *handler.SampleHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.NewClientIPResolver(cfg.TrustedProxies).Handler)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)

	r.Route("/auth", func(auth chi.Router) {
		auth.Use(middleware.Timeout(cfg.RequestTimeout))

		auth.Post("/register", h.Auth.Register)
		auth.Post("/login", h.Auth.Login)
		auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(authMiddleware.RequireAuth)

		api.Get("/sample", h.Sample.Hello)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireRoles(service.AdminRole))

			admin.Get("/sample", h.Sample.HelloAdmin)
			admin.Get("/audit", h.Audit.List)
		})
	})

	return r
}
