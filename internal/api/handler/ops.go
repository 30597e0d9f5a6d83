package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/api/response"
	"github.com/traininduction/traininduction/internal/resilience"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	service   string
	version   string
	buildTime string
	checks    []Check
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(service, version, buildTime string, registry *resilience.Registry, checks ...Check) *OpsHandler {
	return &OpsHandler{
		service:   service,
		version:   version,
		buildTime: buildTime,
		checks:    checks,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"service":   h.service,
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Returns 503 when any dependency check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	failed := map[string]interface{}{}
	for _, s := range subsystems {
		if s.Status != models.HealthStatusOK {
			failed[s.Name] = *s.Detail
		}
	}
	if len(failed) > 0 {
		health.Status = models.HealthStatusFail
		health.Details = failed
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and dependency status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:       models.HealthStatusOK,
		Time:         models.Timestamp(time.Now()),
		Subsystems:   h.runChecks(r.Context()),
		Dependencies: []models.DependencyStatus{},
	}

	for _, s := range status.Subsystems {
		status.Status = status.Status.Worse(s.Status)
	}

	// An open breaker degrades the service; only a failed check fails it.
	if h.registry != nil {
		for _, dep := range h.registry.Health() {
			ds := newDependencyStatus(dep)
			if ds.Status != models.HealthStatusOK {
				status.Status = status.Status.Worse(models.HealthStatusDegraded)
			}
			status.Dependencies = append(status.Dependencies, ds)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	out := make([]models.SubsystemStatus, 0, len(h.checks))
	for _, c := range h.checks {
		s := models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}

		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		start := time.Now()
		err := c.Ping(checkCtx)
		s.LatencyMs = time.Since(start).Milliseconds()
		cancel()

		if err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
		}
		out = append(out, s)
	}
	return out
}

func newDependencyStatus(dep resilience.DependencyHealth) models.DependencyStatus {
	ds := models.DependencyStatus{
		Name:         dep.Name,
		Status:       models.HealthStatusOK,
		CircuitState: dep.CircuitState.String(),
	}
	switch {
	case dep.IsDegraded():
		ds.Status = models.HealthStatusDegraded
	case !dep.IsHealthy():
		ds.Status = models.HealthStatusFail
	}
	if dep.LastSuccessAt != nil {
		ts := models.Timestamp(*dep.LastSuccessAt)
		ds.LastSuccessAt = &ts
	}
	if dep.LastFailureAt != nil {
		ts := models.Timestamp(*dep.LastFailureAt)
		ds.LastFailureAt = &ts
	}
	if dep.LastError != "" {
		msg := dep.LastError
		ds.Message = &msg
	}
	return ds
}
