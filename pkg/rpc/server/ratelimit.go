package server

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Option configures a Server.
type Option func(*Server)

// WithSubmitRateLimit caps POST /blobs at rps requests per second with the given burst.
// A non-positive rps leaves submits unlimited.
func WithSubmitRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.submitLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// limitSubmits rejects requests once the limiter is drained. The limit is shared by all
// clients.
func (s *Server) limitSubmits(next http.Handler) http.Handler {
	if s.submitLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.submitLimiter.Allow() {
			s.logger.Debug().Str("remote", r.RemoteAddr).Msg("submit rate limited")
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "too many submit requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
