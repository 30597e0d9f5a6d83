package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/traininduction/traininduction/internal/api/middleware"

// rejectionReasons names the statuses produced by request policy rather than
// by a handler.
var rejectionReasons = map[int]string{
	http.StatusForbidden:            "tls_required",
	http.StatusUnsupportedMediaType: "unsupported_media_type",
	http.StatusTooManyRequests:      "rate_limited",
}

// Metrics holds the HTTP server instruments.
type Metrics struct {
	requestDuration  metric.Float64Histogram
	requestTotal     metric.Int64Counter
	requestsInFlight metric.Int64UpDownCounter
	responseSize     metric.Int64Histogram
	rejections       metric.Int64Counter
}

// NewMetrics creates the HTTP instruments on provider, or on the global
// meter provider when provider is nil.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	var m Metrics
	var err error

	if m.requestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	); err != nil {
		return nil, err
	}

	if m.requestTotal, err = meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP server requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.requestsInFlight, err = meter.Int64UpDownCounter(
		"http.server.requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.responseSize, err = meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP server responses in bytes"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	if m.rejections, err = meter.Int64Counter(
		"http.server.rejections",
		metric.WithDescription("Requests refused by rate limiting, TLS or media type policy"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// Middleware returns an HTTP middleware that records metrics for each request.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			// The route pattern is only known once chi has routed the request.
			inFlight := metric.WithAttributes(attribute.String("http.request.method", r.Method))
			m.requestsInFlight.Add(ctx, 1, inFlight)
			defer m.requestsInFlight.Add(ctx, -1, inFlight)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			route := routePattern(r)
			attrs := metric.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.response.status_code", strconv.Itoa(wrapped.statusCode)),
				attribute.String("http.response.status_class", statusClass(wrapped.statusCode)),
			)

			m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.requestTotal.Add(ctx, 1, attrs)
			m.responseSize.Record(ctx, wrapped.written, attrs)

			if reason, ok := rejectionReasons[wrapped.statusCode]; ok {
				m.rejections.Add(ctx, 1, metric.WithAttributes(
					attribute.String("http.route", route),
					attribute.String("reason", reason),
				))
			}
		})
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
