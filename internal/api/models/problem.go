package models

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError is a validation failure on one request field. Code is one of
// REQUIRED, FORMAT, RANGE or UNKNOWN_TRAIN.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://traininduction.dev/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation      = problemBase + "validation-error"
	ProblemTypeNotFound        = problemBase + "not-found"
	ProblemTypeUnprocessable   = problemBase + "unprocessable-record"
	ProblemTypeTooManyRequests = problemBase + "too-many-requests"
	ProblemTypeInternal        = problemBase + "internal-error"
	ProblemTypeUnavailable     = problemBase + "service-unavailable"
	ProblemTypeUnsupportedType = problemBase + "unsupported-media-type"
	ProblemTypeTLSRequired     = problemBase + "tls-required"
)

type problemKind struct {
	typ   string
	title string
}

// problemKinds maps each status the API emits to its type and title.
var problemKinds = map[int]problemKind{
	http.StatusBadRequest:           {ProblemTypeValidation, "Validation error"},
	http.StatusForbidden:            {ProblemTypeTLSRequired, "TLS required"},
	http.StatusNotFound:             {ProblemTypeNotFound, "Not found"},
	http.StatusUnsupportedMediaType: {ProblemTypeUnsupportedType, "Unsupported media type"},
	http.StatusUnprocessableEntity:  {ProblemTypeUnprocessable, "Unprocessable record"},
	http.StatusTooManyRequests:      {ProblemTypeTooManyRequests, "Too many requests"},
	http.StatusInternalServerError:  {ProblemTypeInternal, "Internal server error"},
	http.StatusServiceUnavailable:   {ProblemTypeUnavailable, "Service unavailable"},
}

// NewStatusProblem builds a problem for status. Statuses without a
// registered kind use about:blank and the standard status text.
func NewStatusProblem(status int, traceID, detail string) *Problem {
	kind, ok := problemKinds[status]
	if !ok {
		kind = problemKind{typ: "about:blank", title: http.StatusText(status)}
	}
	return &Problem{
		Type:    kind.typ,
		Title:   kind.title,
		Status:  status,
		Detail:  detail,
		TraceID: traceID,
	}
}

// Write sends the problem. The body is encoded before any header is written.
func (p *Problem) Write(w http.ResponseWriter) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(p); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	h.Set("Content-Length", strconv.Itoa(body.Len()))
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_, _ = w.Write(body.Bytes())
}

// NewBadRequest creates a 400 problem carrying every invalid field.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := NewStatusProblem(http.StatusBadRequest, traceID, detail)
	p.Errors = errors
	return p
}

// NewTLSRequired creates a 403 problem for plain-HTTP requests.
func NewTLSRequired(traceID string) *Problem {
	return NewStatusProblem(http.StatusForbidden, traceID, "This endpoint requires HTTPS")
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusNotFound, traceID, detail)
}

// NewUnsupportedMediaType creates a 415 problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusUnsupportedMediaType, traceID, detail)
}

// NewUnprocessable creates a 422 problem. It reports stored data that
// cannot be evaluated, as opposed to a bad request body.
func NewUnprocessable(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusUnprocessableEntity, traceID, detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusTooManyRequests, traceID, detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusInternalServerError, traceID, detail)
}

// NewServiceUnavailable creates a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusServiceUnavailable, traceID, detail)
}
