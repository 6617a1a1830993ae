package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Middleware wraps a handler with the limiter, setting the quota headers
// on every response and answering 429 with Retry-After once the window is
// exhausted. Limiter errors (a lost Redis store, for instance) let the
// request through: degraded limiting beats a dead proxy route.
func Middleware(limiter *Limiter, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				retryAfter := int(time.Until(result.Reset).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"too many requests","retryAfter":%d}`, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP resolves the caller's address from forwarded headers, falling
// back to "unknown" when nothing usable is present.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return "unknown"
}
