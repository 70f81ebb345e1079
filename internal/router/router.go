// Package router sets up the HTTP routes and middleware chain for the
// category API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"taxonomy/internal/handlers"
	"taxonomy/internal/middleware"
)

// New creates and returns the configured Chi router. limiter may be nil,
// in which case write routes are not throttled.
func New(categories *handlers.Categories, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", categories.List)
		r.Get("/{id}", categories.Get)
		r.Get("/{id}/path", categories.Path)

		// Writes take the hierarchy lock, so they are throttled per client.
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Post("/", categories.Create)
			r.Put("/{id}/parent", categories.Reparent)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
