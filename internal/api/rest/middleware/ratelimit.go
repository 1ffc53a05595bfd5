package middleware

import (
	"net"
	"net/http"

	"github.com/finapp/auth-service/internal/api/rest/handler"
	"github.com/finapp/auth-service/internal/apierrors"
	"github.com/finapp/auth-service/internal/logger"
	"github.com/finapp/auth-service/internal/ratelimit"
)

// RateLimit applies a per-source-address request budget in front of the API.
// A nil limiter disables the middleware.
type RateLimit struct {
	limiter ratelimit.Limiter
	logger  *logger.Logger
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(limiter ratelimit.Limiter, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, logger: logger}
}

// Handle rejects sources over budget with 429. Limiter failures fail open:
// an unreachable counter store must not take the API down with it.
func (m *RateLimit) Handle(next http.Handler) http.Handler {
	if m.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		source := clientIP(r)

		allowed, err := m.limiter.Allow(r.Context(), source)
		if err != nil {
			m.logger.Error("RateLimit middleware: limiter unavailable", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			m.logger.Info("RateLimit middleware: request rejected", "source", source)
			handler.WriteError(w, apierrors.NewErrTooManyRequests(), true)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
