// Package models provides request and response models for the induction API.
package models

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the health status of the service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

var healthSeverity = map[HealthStatus]int{
	HealthStatusOK:       0,
	HealthStatusDegraded: 1,
	HealthStatusFail:     2,
}

// Worse returns the more severe of s and other. Unknown values rank as FAIL.
func (s HealthStatus) Worse(other HealthStatus) HealthStatus {
	rank := func(h HealthStatus) int {
		if v, ok := healthSeverity[h]; ok {
			return v
		}
		return healthSeverity[HealthStatusFail]
	}
	if rank(other) > rank(s) {
		return other
	}
	return s
}

// ListMeta describes a list response.
type ListMeta struct {
	Count int `json:"count"`
}

// Timestamp is an instant rendered as RFC 3339 in UTC.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp. null leaves t unchanged.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
