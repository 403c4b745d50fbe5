/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/employees/*      Entry capture, summaries, weekly and monthly reports
  /api/entries/*        Edits and single approvals
  /api/coordinators/*   Supervised entry listings
  /api/approvals/*      Bulk approvals
  /api/settings         Schedule settings
  /api/preview/*        Overtime split preview
  /api/clients/*        Area catalog
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

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

// RouterOptions tunes the router. Zero values get defaults.
type RouterOptions struct {
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees/{id}", func(r chi.Router) {
			r.Get("/entries", h.ListEntries)
			r.Post("/entries", h.SubmitEntry)
			r.Get("/summary", h.GetSummary)
			r.Get("/weeks/{date}", h.GetWeek)
			r.Get("/months/{date}", h.GetMonth)
		})

		// Entry routes
		r.Route("/entries/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateEntry)
			r.Post("/approve", h.ApproveEntry)
			r.Post("/reject", h.RejectEntry)
			r.Post("/approve-normal", h.ApproveNormalEntry)
		})

		r.Get("/coordinators/{id}/entries", h.ListCoordinatorEntries)
		r.Post("/approvals/bulk", h.BulkApprove)

		// Schedule routes
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.PutSettings)
		r.Post("/preview/split", h.PreviewSplit)

		r.Get("/clients/{key}/areas", h.ListClientAreas)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
