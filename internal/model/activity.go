package model

import "time"

type Activity struct {
	ID               int64     `json:"id"`
	ChildID          int64     `json:"child_id"`
	ActivityDate     string    `json:"activity_date"` // YYYY-MM-DD
	ActivityTime     *string   `json:"activity_time"` // HH:MM
	ActivityType     string    `json:"activity_type"`
	Description      string    `json:"description"`
	DurationMinutes  *int      `json:"duration_minutes"`
	CompletionStatus string    `json:"completion_status"`
	Notes            string    `json:"notes"`
	RecordedBy       *int64    `json:"recorded_by"`
	CreatedAt        time.Time `json:"created_at"`
}
