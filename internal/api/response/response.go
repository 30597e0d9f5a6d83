// Package response writes JSON bodies and RFC 7807 problems for the induction API.
package response

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/traininduction/traininduction/internal/api/middleware"
	"github.com/traininduction/traininduction/internal/api/models"
)

// JSON writes data as a JSON response with the given status code.
// The body is encoded before any header is sent, so an unencodable value
// yields a 500 problem instead of a truncated 2xx.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	write(w, r, status, "", data)
}

// Created writes a 201 Created response with a Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	write(w, r, http.StatusCreated, location, data)
}

func write(w http.ResponseWriter, r *http.Request, status int, location string, data interface{}) {
	var body bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&body).Encode(data); err != nil {
			InternalError(w, r, "response could not be encoded")
			return
		}
	}

	h := w.Header()
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		h.Set("X-Request-Id", requestID)
	}
	h.Set("Content-Type", "application/json")
	h.Set("Content-Length", strconv.Itoa(body.Len()))
	if location != "" {
		h.Set("Location", location)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body.Bytes())
}

// Error writes a Problem+JSON error response. Instance defaults to the
// request path.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	if problem.Instance == "" {
		problem.Instance = r.URL.Path
	}
	problem.Write(w)
}

// BadRequest writes a 400 problem listing every invalid field.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(traceID(r), detail, errors))
}

// NotFound writes a 404 problem for an unknown train or schedule.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(traceID(r), detail))
}

// Unprocessable writes a 422 problem for stored data that cannot be evaluated.
func Unprocessable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewUnprocessable(traceID(r), detail))
}

// InternalError writes a 500 problem.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(traceID(r), detail))
}

// ServiceUnavailable writes a 503 problem, used while a store circuit is open.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewServiceUnavailable(traceID(r), detail))
}

func traceID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
