// Package handler provides HTTP handlers for the induction API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/api/middleware"
	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/api/response"
	"github.com/traininduction/traininduction/internal/fleet"
	"github.com/traininduction/traininduction/internal/resilience"
	"github.com/traininduction/traininduction/internal/schedule"
	"github.com/traininduction/traininduction/internal/scoring"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into v. An empty body leaves v unchanged
// when optional is true.
func decodeJSON(r *http.Request, v interface{}, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// parseOperationalContext validates the wire context. field prefixes error paths.
func parseOperationalContext(field string, oc models.OperationalContext) (scoring.OperationalContext, []models.FieldError) {
	var errs []models.FieldError

	date, err := parseDateField(field+".date", oc.Date)
	if err != nil {
		errs = append(errs, *err)
	}
	if oc.Time != "" && !schedule.ValidTime(oc.Time) {
		errs = append(errs, models.FieldError{Field: field + ".time", Message: "must be in HH:mm format", Code: "FORMAT"})
	}
	return scoring.OperationalContext{Date: date, Time: oc.Time}, errs
}

// parseDateField parses an optional YYYY-MM-DD value.
func parseDateField(field, value string) (civil.Date, *models.FieldError) {
	d, err := scoring.ParseOptionalDate(field, value)
	if err != nil {
		return civil.Date{}, &models.FieldError{Field: field, Message: "must be in YYYY-MM-DD format", Code: "FORMAT"}
	}
	return d, nil
}

// writeError maps service errors onto problem responses. id names the
// requested train or schedule in not-found details.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error, id string) {
	switch {
	case errors.Is(err, fleet.ErrTrainNotFound):
		response.NotFound(w, r, fmt.Sprintf("train %q not found", id))
	case errors.Is(err, schedule.ErrScheduleNotFound):
		response.NotFound(w, r, fmt.Sprintf("schedule %q not found", id))
	case errors.Is(err, scoring.ErrMalformedDate):
		response.Unprocessable(w, r, err.Error())
	case errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, "a backing store is unavailable, retry later")
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
