package model

import "time"

type Medication struct {
	ID           int64     `json:"id"`
	ChildID      int64     `json:"child_id"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`      // free-text, e.g. "2x daily"
	ScheduleRule string    `json:"schedule_rule"`  // RRULE driving dose-due status
	StartDate    string    `json:"start_date"`     // YYYY-MM-DD
	EndDate      *string   `json:"end_date"`
	Instructions string    `json:"instructions"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type MedicationDose struct {
	ID           int64     `json:"id"`
	MedicationID int64     `json:"medication_id"`
	Dosage       string    `json:"dosage"`
	GivenAt      time.Time `json:"given_at"`
	GivenBy      *int64    `json:"given_by"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}
