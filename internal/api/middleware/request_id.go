// Package middleware provides HTTP middleware for the induction API.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Request ID headers, in order of precedence. Depot systems upstream of the
// API send X-Correlation-Id; the response always carries X-Request-Id.
const (
	RequestIDHeader     = "X-Request-Id"
	CorrelationIDHeader = "X-Correlation-Id"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

type requestIDKey struct{}

// RequestID attaches a request ID to the context and the X-Request-Id
// response header. Well-formed client IDs are reused, anything else is
// replaced with a generated one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := clientRequestID(r)
		if requestID == "" {
			requestID = NewRequestID()
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID)))
	})
}

// clientRequestID returns the first valid client-supplied ID, or "".
func clientRequestID(r *http.Request) string {
	for _, h := range []string{RequestIDHeader, CorrelationIDHeader} {
		if id := strings.TrimSpace(r.Header.Get(h)); requestIDPattern.MatchString(id) {
			return id
		}
	}
	return ""
}

// NewRequestID returns a time-ordered ID of the form req_<32 hex>.
func NewRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "req_" + strings.ReplaceAll(id.String(), "-", "")
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
