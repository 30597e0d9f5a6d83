package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/api/response"
	"github.com/traininduction/traininduction/internal/schedule"
)

// maxScheduleLimit caps the limit query parameter.
const maxScheduleLimit = 500

// ScheduleHandler handles schedule log endpoints.
type ScheduleHandler struct {
	service *schedule.Service
	logger  zerolog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(service *schedule.Service, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, logger: logger}
}

// CreateSchedule handles POST /v1/schedules - score a train and log the decision.
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var input models.ScheduleCreateRequest
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	entry, err := h.service.Log(r.Context(), &input)
	if err != nil {
		if ve, ok := schedule.IsValidationError(err); ok {
			response.BadRequest(w, r, "validation failed", ve.Errors)
			return
		}
		writeError(w, r, h.logger, err, input.TrainID)
		return
	}

	response.Created(w, r, "/v1/schedules/"+entry.ID, entry)
}

// ListSchedules handles GET /v1/schedules - list logged entries in creation order.
// Optional query parameters: trainId, date (YYYY-MM-DD), limit.
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := schedule.ListOptions{TrainID: q.Get("trainId")}

	var fieldErrors []models.FieldError
	date, fieldErr := parseDateField("date", q.Get("date"))
	if fieldErr != nil {
		fieldErrors = append(fieldErrors, *fieldErr)
	}
	opts.Date = date

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxScheduleLimit {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   "limit",
				Message: "must be an integer between 1 and " + strconv.Itoa(maxScheduleLimit),
				Code:    "RANGE",
			})
		}
		opts.Limit = limit
	}

	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrors)
		return
	}

	list, err := h.service.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.logger, err, "")
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

// GetSchedule handles GET /v1/schedules/{scheduleId} - get one logged entry.
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")
	if scheduleID == "" {
		response.BadRequest(w, r, "scheduleId is required", nil)
		return
	}

	entry, err := h.service.Get(r.Context(), scheduleID)
	if err != nil {
		writeError(w, r, h.logger, err, scheduleID)
		return
	}
	response.JSON(w, r, http.StatusOK, entry)
}
