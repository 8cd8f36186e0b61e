package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"deadpoets/internal/handler"
	"deadpoets/internal/httputil"
	"deadpoets/internal/service"
	authmw "deadpoets/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler  *handler.AuthHandler
	PostHandler  *handler.PostHandler
	TokenService *service.TokenService
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	requireAuth := authmw.AuthMiddleware(cfg.TokenService)

	// API index (useful for a quick reachability check)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Dead Poets Society API is running",
			"endpoints": map[string]string{
				"auth":  "/api/auth",
				"posts": "/api/posts",
			},
		})
	})

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "Server is healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Public routes - no authentication required
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)

			// Protected routes - require a valid bearer token
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Get("/profile", cfg.AuthHandler.Profile)
				r.Patch("/profile", cfg.AuthHandler.UpdateProfile)
				r.Delete("/profile", cfg.AuthHandler.DeleteAccount)
				r.Patch("/change-password", cfg.AuthHandler.ChangePassword)
				r.Get("/verify", cfg.AuthHandler.Verify)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			// Reading posts is public
			r.Get("/", cfg.PostHandler.List)
			r.Get("/{id}", cfg.PostHandler.GetByID)

			// Writing posts requires authentication
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Post("/", cfg.PostHandler.Create)
				r.Patch("/{id}", cfg.PostHandler.Update)
				r.Patch("/{id}/like", cfg.PostHandler.Like)
				r.Delete("/{id}", cfg.PostHandler.Delete)
				r.Delete("/", cfg.PostHandler.DeleteAll)
			})
		})
	})

	return r
}
