package handler

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/api/response"
	"github.com/traininduction/traininduction/internal/induction"
	"github.com/traininduction/traininduction/internal/scoring"
)

// InductionHandler handles scoring, ranking and optimization endpoints.
type InductionHandler struct {
	service *induction.Service
	logger  zerolog.Logger
}

// NewInductionHandler creates a new InductionHandler.
func NewInductionHandler(service *induction.Service, logger zerolog.Logger) *InductionHandler {
	return &InductionHandler{service: service, logger: logger}
}

// ScoreTrain handles POST /v1/induction:score - evaluate one train.
func (h *InductionHandler) ScoreTrain(w http.ResponseWriter, r *http.Request) {
	var input models.ScoreRequest
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	oc, fieldErrors := parseOperationalContext("operationalContext", input.OperationalContext)
	trainID := strings.TrimSpace(input.TrainID)
	if trainID == "" {
		fieldErrors = append([]models.FieldError{{Field: "trainId", Message: "is required", Code: "REQUIRED"}}, fieldErrors...)
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	// Resolved here so the response reports the date actually used.
	oc.Date = h.service.Engine().ReferenceDate(oc)

	result, err := h.service.ScoreTrain(r.Context(), trainID, oc)
	if err != nil {
		writeError(w, r, h.logger, err, trainID)
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewScoreResult(trainID, scoring.FormatDate(oc.Date), result))
}

// RankFleet handles POST /v1/induction:rank - rank the fleet for induction.
func (h *InductionHandler) RankFleet(w http.ResponseWriter, r *http.Request) {
	var input models.RankRequest
	if err := decodeJSON(r, &input, true); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	oc, fieldErrors := parseOperationalContext("operationalContext", input.OperationalContext)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	ranking, err := h.service.RankFleet(r.Context(), oc, input.AvailableOnly)
	if err != nil {
		writeError(w, r, h.logger, err, "")
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewRanking(ranking))
}

// OptimizeFleet handles POST /v1/induction:optimize - summarise fleet readiness.
func (h *InductionHandler) OptimizeFleet(w http.ResponseWriter, r *http.Request) {
	var input models.OptimizeRequest
	if err := decodeJSON(r, &input, true); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	date, fieldErr := parseDateField("date", input.Date)
	if fieldErr != nil {
		response.BadRequest(w, r, "validation failed", []models.FieldError{*fieldErr})
		return
	}

	summary, err := h.service.OptimizeFleet(r.Context(), date)
	if err != nil {
		writeError(w, r, h.logger, err, "")
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewFleetSummary(summary))
}
