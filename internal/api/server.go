// Package api provides the HTTP surface of the coin economy ledger.
// Routing and framing only — every business decision lives in the app layer.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/sureshield/coinledger/internal/auth"
	"github.com/sureshield/coinledger/internal/infra/ratelimit"
)

// Server is the coin ledger HTTP API server.
type Server struct {
	economy        *EconomyAPI
	auth           *auth.Manager
	log            *logrus.Logger
	metricsEnabled bool

	limiter        *ratelimit.Limiter
	throttleMax    int
	throttleWindow time.Duration
}

// NewServer creates a new API server.
func NewServer(economy *EconomyAPI, authMgr *auth.Manager, log *logrus.Logger) *Server {
	return &Server{economy: economy, auth: authMgr, log: log}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetThrottle enables the per-user fixed-window API throttle.
func (s *Server) SetThrottle(limiter *ratelimit.Limiter, maxRequests int, window time.Duration) {
	s.limiter = limiter
	s.throttleMax = maxRequests
	s.throttleWindow = window
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Authenticated user surface.
	r.Route("/api/coins", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Use(s.throttle)
		r.Post("/earn", s.economy.HandleEarn)
		r.Get("/balance", s.economy.HandleBalance)
		r.Get("/rewards", s.economy.HandleRewards)
		r.Post("/redeem", s.economy.HandleRedeem)
	})

	// Admin surface: role check at this boundary, none below it.
	r.Route("/api/admin/coins", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Use(s.requireAdmin)
		r.Post("/", s.economy.HandleAdminAdjust)
		r.Post("/batch", s.economy.HandleAdminBatch)
	})

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the web front-end.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
