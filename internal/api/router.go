package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/taskforge-hq/taskforge/internal/api/auth"
	"github.com/taskforge-hq/taskforge/internal/api/middleware"
	"github.com/taskforge-hq/taskforge/internal/api/projects"
	"github.com/taskforge-hq/taskforge/internal/api/tasks"
	"github.com/taskforge-hq/taskforge/internal/api/users"
	"github.com/taskforge-hq/taskforge/internal/models"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Create JWT service
	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.AccessTokenTTL)

	// Create lockout tracker
	lockoutTracker := auth.NewLockoutTracker(s.config.LockoutThreshold, s.config.LockoutDuration)

	// Create rate limiters
	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	userLimiter := middleware.NewRateLimiter(s.config.RateLimitPerUser)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.Recoverer)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (mostly public)
		r.Route("/auth", func(r chi.Router) {
			authHandler := auth.NewHandler(
				s.storage,
				jwtService,
				lockoutTracker,
				s.config.RefreshTokenTTL,
			)

			// Public routes with IP rate limiting
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(ipLimiter))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.JWTAuth(jwtService))
				r.Post("/logout", authHandler.Logout)
			})
		})

		// User routes (protected)
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			userHandler := users.NewHandler(s.storage)

			// Current user endpoints (any authenticated user)
			r.Get("/me", userHandler.GetCurrentUser)
			r.Put("/me/password", userHandler.ChangePassword)

			// The directory is open to any authenticated user so members
			// can be picked by ID; account creation stays admin-only.
			r.Get("/", userHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Post("/", userHandler.Create)
			})

			// Per-user endpoints (admin or self)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RequireAdminOrSelf)
				r.Get("/", userHandler.GetByID)
				r.Put("/", userHandler.Update)

				// Delete is admin-only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin))
					r.Delete("/", userHandler.Delete)
				})
			})
		})

		// Project routes (protected; per-project permissions are decided
		// in the handlers from project membership)
		r.Route("/projects", func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			projectHandler := projects.NewHandler(s.storage)
			taskHandler := tasks.NewHandler(s.storage, s.files)

			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.GetByID)
				r.Patch("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)

				r.Get("/members", projectHandler.GetMembers)
				r.Post("/members", projectHandler.AddMember)
				r.Delete("/members/{userId}", projectHandler.RemoveMember)

				r.Get("/stats", projectHandler.Stats)
				r.Get("/stats/mine", projectHandler.StatsMine)
				r.Get("/report", projectHandler.Report)

				r.Get("/tasks", taskHandler.ListByProject)
				r.Post("/tasks", taskHandler.Create)
			})
		})

		// Task routes (protected)
		r.Route("/tasks", func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			taskHandler := tasks.NewHandler(s.storage, s.files)

			r.Get("/mine", taskHandler.Mine)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetByID)
				r.Patch("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)

				r.Get("/comments", taskHandler.ListComments)
				r.Post("/comments", taskHandler.AddComment)

				r.Get("/attachments", taskHandler.ListAttachments)
				r.Post("/attachments", taskHandler.Upload)
				r.Get("/attachments/{attachmentId}", taskHandler.Download)
			})
		})
	})

	// Health endpoints (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}
