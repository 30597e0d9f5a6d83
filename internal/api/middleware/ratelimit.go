package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/traininduction/traininduction/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
}

// PerMinute returns a limit of n requests per minute.
func PerMinute(n int) RateLimitConfig {
	return RateLimitConfig{RequestLimit: n, WindowLength: time.Minute}
}

// Default rate limit configurations.
var (
	// RankingRateLimit applies to fleet ranking and optimization (30 req/min).
	RankingRateLimit = PerMinute(30)

	// StandardRateLimit applies to every other endpoint (100 req/min).
	StandardRateLimit = PerMinute(100)
)

// RateLimitByIP creates a rate limiter middleware using client IP address.
// Uses X-Forwarded-For header if present (extracted by chi's RealIP middleware).
// A non-positive RequestLimit disables limiting.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Round(time.Second).Seconds()))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			rateLimitExceeded(w, r, retryAfter)
		}),
	)
}

// rateLimitExceeded writes an RFC7807 Problem response when rate limit is exceeded.
// httprate does not expose the reset time, so Retry-After is the window length.
func rateLimitExceeded(w http.ResponseWriter, r *http.Request, retryAfter string) {
	traceID := GetRequestID(r.Context())

	problem := models.NewTooManyRequests(traceID, "Rate limit exceeded. Please try again later.")
	problem.Instance = r.URL.Path

	w.Header().Set("Retry-After", retryAfter)
	problem.Write(w)
}
