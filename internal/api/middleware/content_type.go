package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/traininduction/traininduction/internal/api/models"
)

// ContentTypeJSON defaults the response Content-Type to application/json.
// Handlers writing problems override it.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects POST bodies that are not UTF-8 application/json with
// 415. A missing Content-Type is accepted because rank and optimize take an
// optional body.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if detail := checkJSONContentType(r.Header.Get("Content-Type")); detail != "" {
				problem := models.NewUnsupportedMediaType(GetRequestID(r.Context()), detail)
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// checkJSONContentType returns a problem detail, or "" when contentType is acceptable.
func checkJSONContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return "Content-Type must be application/json"
	}
	if cs, ok := params["charset"]; ok && !strings.EqualFold(cs, "utf-8") {
		return "request bodies must be UTF-8 encoded"
	}
	return ""
}
