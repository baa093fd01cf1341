package model

import "time"

type Seizure struct {
	ID               int64     `json:"id"`
	ChildID          int64     `json:"child_id"`
	StartedAt        time.Time `json:"started_at"`
	DurationMinutes  *int      `json:"duration_minutes"`
	SeizureType      string    `json:"seizure_type"`
	Observations     string    `json:"observations"`
	PostSeizureState string    `json:"post_seizure_state"`
	EmergencyAction  bool      `json:"emergency_action"`
	Notes            string    `json:"notes"`
	RecordedBy       *int64    `json:"recorded_by"`
	CreatedAt        time.Time `json:"created_at"`
}
