package handler

import (
	"net/http"
	"sort"

	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/api/response"
	"github.com/traininduction/traininduction/internal/schedule"
	"github.com/traininduction/traininduction/internal/scoring"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	engine *scoring.Engine
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(engine *scoring.Engine) *MetadataHandler {
	return &MetadataHandler{engine: engine}
}

// GetEnums handles GET /v1/metadata/enums - get enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	recs := scoring.Recommendations()
	enums := models.Enums{
		Recommendations: make([]models.Recommendation, 0, len(recs)),
		ConflictKinds: []string{
			string(scoring.ConflictCertificateExpired),
			string(scoring.ConflictExcessJobCards),
			string(scoring.ConflictMaintenanceHold),
		},
		ScheduleStatus: []string{
			string(schedule.StatusScheduled),
			string(schedule.StatusPendingReview),
		},
	}
	for _, rec := range recs {
		enums.Recommendations = append(enums.Recommendations, models.NewRecommendation(rec))
	}

	bays := h.engine.Bays()
	enums.StablingBays = make([]models.StablingBay, 0, len(bays))
	for bay, eff := range bays {
		enums.StablingBays = append(enums.StablingBays, models.StablingBay{Bay: bay, Efficiency: eff})
	}
	sort.Slice(enums.StablingBays, func(i, j int) bool {
		return enums.StablingBays[i].Bay < enums.StablingBays[j].Bay
	})

	response.JSON(w, r, http.StatusOK, enums)
}
