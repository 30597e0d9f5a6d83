package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traininduction/traininduction/internal/api/middleware"
)

var generatedID = regexp.MustCompile(`^req_[0-9a-f]{32}$`)

// serveRequestID runs RequestID with the given request headers and returns
// the ID seen by the handler and the response header value.
func serveRequestID(t *testing.T, headers map[string]string) (inContext, inHeader string) {
	t.Helper()
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/trains", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return inContext, w.Header().Get(middleware.RequestIDHeader)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string // empty means a generated ID is expected
	}{
		{name: "no header", headers: nil},
		{name: "request id reused", headers: map[string]string{"X-Request-Id": "depot-7:shift.2"}, want: "depot-7:shift.2"},
		{name: "correlation id reused", headers: map[string]string{"X-Correlation-Id": "mms-1182"}, want: "mms-1182"},
		{
			name:    "request id wins over correlation id",
			headers: map[string]string{"X-Request-Id": "abc", "X-Correlation-Id": "def"},
			want:    "abc",
		},
		{
			name:    "malformed request id falls back to correlation id",
			headers: map[string]string{"X-Request-Id": "bad id", "X-Correlation-Id": "def"},
			want:    "def",
		},
		{name: "newline rejected", headers: map[string]string{"X-Request-Id": "bad\nid"}},
		{name: "too long rejected", headers: map[string]string{"X-Request-Id": string(make([]byte, 129))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctxID, headerID := serveRequestID(t, tt.headers)

			assert.Equal(t, ctxID, headerID)
			if tt.want == "" {
				assert.Regexp(t, generatedID, headerID)
				return
			}
			assert.Equal(t, tt.want, headerID)
		})
	}
}

func TestNewRequestID_Unique(t *testing.T) {
	seen := make(map[string]bool, 100)
	for i := 0; i < 100; i++ {
		id := middleware.NewRequestID()
		require.Regexp(t, generatedID, id)
		assert.False(t, seen[id], "duplicate request ID generated: %s", id)
		seen[id] = true
	}
}

func TestGetRequestID_ReturnsEmptyStringForMissingContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/trains", nil)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}
