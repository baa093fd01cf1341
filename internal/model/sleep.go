package model

import "time"

type SleepRecord struct {
	ID           int64     `json:"id"`
	ChildID      int64     `json:"child_id"`
	SleepDate    string    `json:"sleep_date"` // YYYY-MM-DD
	Bedtime      *string   `json:"bedtime"`    // HH:MM
	WakeTime     *string   `json:"wake_time"`  // HH:MM
	NightWakings int       `json:"night_wakings"`
	SleepQuality string    `json:"sleep_quality"`
	QualityNotes string    `json:"quality_notes"`
	RecordedBy   *int64    `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"`
}
