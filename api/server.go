/*
server.go - HTTP router and middleware configuration

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend
  5. RequireAuth (inventory routes only): JWT -> explicit userID

ROUTE GROUPS:
  /api/auth/*        Registration and login (public)
  /api/*             Inventory operations (authenticated)
  /metrics           Prometheus metrics
  /healthz           Liveness probe
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gudang/stock-engine/auth"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, tokens *auth.JWTManager) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		// Everything else requires a valid session token
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(tokens))

			r.Route("/stock", func(r chi.Router) {
				r.Post("/in", h.StockIn)
				r.Post("/out", h.StockOut)
			})

			r.Route("/items", func(r chi.Router) {
				r.Get("/", h.ListItems)
				r.Get("/quantity", h.GetQuantity)
			})

			r.Get("/history", h.GetHistory)
			r.Get("/reports/low-stock", h.GetLowStock)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
