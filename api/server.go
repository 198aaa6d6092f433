/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*    Employee directory + per-employee read models
  /api/classify       Stateless classification preview
  /api/days/*         Day registration and banking decisions
  /api/banking        Banking allocation requests
  /api/redemptions/*  Redemption lifecycle
  /api/closings       Period settlement
  /api/holidays/*     Festivo calendar

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/ledger", h.GetLedger)
			r.Get("/{id}/days", h.GetDays)
			r.Get("/{id}/redemptions", h.GetRedemptions)
			r.Get("/{id}/closings", h.GetClosings)
			r.Post("/{id}/adjustments", h.CreateAdjustment)
		})

		// Stateless classification preview
		r.Post("/classify", h.ClassifyDay)

		// Day registration and banking decisions
		r.Route("/days", func(r chi.Router) {
			r.Post("/", h.RegisterDay)
			r.Post("/{id}/banking/approve", h.ApproveBanking)
			r.Post("/{id}/banking/reject", h.RejectBanking)
		})

		// Banking allocation
		r.Post("/banking", h.RequestBanking)

		// Redemption lifecycle
		r.Route("/redemptions", func(r chi.Router) {
			r.Post("/", h.SubmitRedemption)
			r.Post("/direct", h.DirectRedeem)
			r.Get("/{id}", h.GetRedemption)
			r.Post("/{id}/approve", h.ApproveRedemption)
			r.Post("/{id}/reject", h.RejectRedemption)
		})

		// Period settlement
		r.Post("/closings", h.ClosePeriod)

		// Festivo calendar
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{date}", h.DeleteHoliday)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"service":"overtime-engine","status":"ok"}`))
	})

	return r
}
