package models

import "github.com/traininduction/traininduction/internal/scoring"

// ScheduleCreateRequest is the body of POST /v1/schedules.
// All fields are required.
type ScheduleCreateRequest struct {
	TrainID string `json:"trainId"`
	Station string `json:"station"`
	Route   string `json:"route"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// ScheduleEntry is a logged induction decision.
type ScheduleEntry struct {
	ID             string            `json:"id"`
	TrainID        string            `json:"trainId"`
	Station        string            `json:"station"`
	Route          string            `json:"route"`
	Date           string            `json:"date"`
	Time           string            `json:"time"`
	Score          int               `json:"score"`
	Breakdown      scoring.Breakdown `json:"breakdown"`
	Conflicts      []string          `json:"conflicts"`
	Recommendation Recommendation    `json:"recommendation"`
	Status         string            `json:"status"`
	CreatedAt      Timestamp         `json:"createdAt"`
}

// ScheduleList is the response of GET /v1/schedules.
type ScheduleList struct {
	Items []ScheduleEntry `json:"items"`
	Meta  ListMeta        `json:"meta"`
}
