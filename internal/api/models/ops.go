package models

// Health is the body of the liveness and readiness probes.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus aggregates readiness checks and breaker state. Status is
// FAIL when a check fails and DEGRADED when a breaker is not closed.
type SystemStatus struct {
	Status       HealthStatus       `json:"status"`
	Time         Timestamp          `json:"time"`
	Subsystems   []SubsystemStatus  `json:"subsystems"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// SubsystemStatus is the outcome of one readiness check.
type SubsystemStatus struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	LatencyMs int64        `json:"latencyMs"`
	Detail    *string      `json:"detail,omitempty"`
}

// DependencyStatus represents the circuit breaker view of a guarded dependency.
type DependencyStatus struct {
	Name          string       `json:"name"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}
