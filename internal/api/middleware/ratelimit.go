package middleware

import (
	"log"
	"net"
	"net/http"
	"time"

	"authgate/internal/app/ratelimit"
	"authgate/internal/common"
)

// RateLimit admits or rejects every request before any auth work happens.
// The client identifier is the source IP (chi's RealIP middleware runs
// earlier, so proxy headers are already folded in). Rejections answer a
// fixed 429 body and skip the rest of the pipeline; a store failure fails
// closed with a 500 rather than waving traffic through.
func RateLimit(store ratelimit.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admitted, err := store.Admit(r.Context(), clientIP(r), time.Now())
			if err != nil {
				log.Printf("rate limit store failure for %s %s: %v", r.Method, r.URL.Path, err)
				common.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !admitted {
				common.RespondWithMessage(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
