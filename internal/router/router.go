// Package router sets up all HTTP routes and middleware chains for the
// catalog service. Developer endpoints authenticate with an API key; the
// administrative surface is gated behind a shared service token.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Petarainsoft/myroom-catalog/internal/handlers"
	"github.com/Petarainsoft/myroom-catalog/internal/middleware"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. A nil limiter disables rate limiting.
func New(developers *store.DeveloperStore, serviceToken string, limiter *middleware.RateLimiter, catalog *handlers.Catalog, access *handlers.Access, admin *handlers.Admin) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	if limiter != nil {
		r.Use(limiter.Middleware)
	}
	r.Use(middleware.Authenticate(developers))

	// Health check, no auth.
	r.Get("/health", healthHandler)

	r.Route("/v1", func(r chi.Router) {
		// Developer endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireDeveloper)

			r.Route("/items", func(r chi.Router) {
				r.Post("/", catalog.ItemUpload)
				r.Get("/", catalog.ItemsList)
			})

			r.Route("/avatar-parts", func(r chi.Router) {
				r.Post("/", catalog.AvatarPartUpload)
				r.Get("/", catalog.AvatarPartsList)
			})

			r.Get("/categories", catalog.CategoriesTree)

			r.Route("/catalog/{publicID}", func(r chi.Router) {
				r.Get("/access", access.Check)
				r.Get("/file", access.File)
			})
		})

		// Administrative surface for the collaborator service.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireServiceToken(serviceToken))

			r.Post("/grants", admin.GrantUpsert)
			r.Post("/grants/bulk", admin.GrantBulk)
			r.Delete("/grants", admin.GrantRevoke)
			r.Post("/catalog/{publicID}/archive", admin.Archive)
			r.Post("/catalog/{publicID}/rename", admin.Rename)
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
