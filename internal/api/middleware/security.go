package middleware

import (
	"net/http"
	"strings"

	"github.com/traininduction/traininduction/internal/api/models"
)

// SecurityHeaders adds standard security headers to all HTTP responses.
// Responses are also marked no-store: scores depend on the reference date and
// on train records that change between requests.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// RequireTLS returns a middleware rejecting plain HTTP requests with 403 when
// enabled. Behind a load balancer the first X-Forwarded-Proto hop decides.
// Liveness and readiness probes are always allowed.
func RequireTLS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || probePaths[r.URL.Path] || forwardedHTTPS(r) {
				next.ServeHTTP(w, r)
				return
			}

			problem := models.NewTLSRequired(GetRequestID(r.Context()))
			problem.Instance = r.URL.Path
			problem.Write(w)
		})
	}
}

func forwardedHTTPS(r *http.Request) bool {
	proto := r.Header.Get("X-Forwarded-Proto")
	if i := strings.IndexByte(proto, ','); i >= 0 {
		proto = proto[:i]
	}
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}
