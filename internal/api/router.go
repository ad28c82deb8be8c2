package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Simulation control
		r.Route("/simulation", func(r chi.Router) {
			r.Post("/start", s.handleSimulationStart)
			r.Post("/stop", s.handleSimulationStop)
			r.Get("/status", s.handleSimulationStatus)
			r.Get("/events", s.handleSimulationEvents)
			r.Post("/clear", s.handleSimulationClear)
			r.Post("/reset", s.handleSimulationReset)
		})

		// Order queries and repair
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.handleListOrders)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetOrder)
				r.Get("/products", s.handleOrderProducts)
				r.Post("/normalize", s.handleNormalizeOrder)
			})
		})

		// WebSocket event stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status. When a database handle is
// configured, its connectivity is included in the report.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
	}

	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("database health check failed", "error", err)
			resp["status"] = "degraded"
			resp["database"] = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
