package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/api/response"
	"github.com/traininduction/traininduction/internal/induction"
)

// TrainHandler handles fleet endpoints.
type TrainHandler struct {
	service *induction.Service
	logger  zerolog.Logger
}

// NewTrainHandler creates a new TrainHandler.
func NewTrainHandler(service *induction.Service, logger zerolog.Logger) *TrainHandler {
	return &TrainHandler{service: service, logger: logger}
}

// ListTrains handles GET /v1/trains - list the fleet in store order.
func (h *TrainHandler) ListTrains(w http.ResponseWriter, r *http.Request) {
	trains, err := h.service.ListTrains(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err, "")
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewTrainList(trains))
}

// GetTrain handles GET /v1/trains/{trainId} - get one train's detail.
func (h *TrainHandler) GetTrain(w http.ResponseWriter, r *http.Request) {
	trainID := chi.URLParam(r, "trainId")
	if trainID == "" {
		response.BadRequest(w, r, "trainId is required", nil)
		return
	}

	train, err := h.service.GetTrain(r.Context(), trainID)
	if err != nil {
		writeError(w, r, h.logger, err, trainID)
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewTrain(*train))
}
