package main

import (
	"net"
	"net/http"
)

// RateLimiterMiddleware limits requests per client address. RealIP runs first, so
// RemoteAddr already holds the forwarded address when there is one.
func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}
		if allow, retryAfter := app.rateLimiter.Allow(key); !allow {
			app.rateLimitExceededResponse(w, r, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}
