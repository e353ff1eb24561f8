package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/sureshield/coinledger/internal/auth"
	"github.com/sureshield/coinledger/internal/infra/observability"
	"github.com/sureshield/coinledger/internal/infra/ratelimit"
)

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

// requireAuth resolves the caller's identity from the bearer token and
// attaches it to the request context. Mutating operations never proceed
// without a resolved user id.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.TokenFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), claims)))
	})
}

// requireAdmin gates the admin surface on the role claim.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.IdentityFrom(r.Context())
		if !ok || claims.Role != auth.RoleAdmin {
			writeError(w, http.StatusForbidden, "administrative role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// throttle applies the per-user fixed-window API limit. Best-effort and
// process-local: it shields against abusive clients, it is not a
// correctness mechanism.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || s.throttleMax <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		claims, ok := auth.IdentityFrom(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		dec := s.limiter.Check(ratelimit.APIKey(claims.UserID), s.throttleWindow, s.throttleMax)
		decision := "allowed"
		if !dec.Allowed {
			decision = "denied"
		}
		observability.RateLimitDecisions.WithLabelValues("api", decision).Inc()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(dec.ResetAt.Unix(), 10))
		if !dec.Allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
