package model

import "time"

// Notification categories.
const (
	CategoryEventReminder   = "event_reminder"
	CategorySeizureReminder = "seizure_reminder"
	CategoryMedicationDue   = "medication_due"
	CategoryAppointmentDue  = "appointment_due"
	CategoryTestDue         = "test_due"
)

// Notification is one row of the dispatch audit log. Rows are append-only:
// nothing in the codebase updates or deletes them.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	SentAt    time.Time `json:"sent_at"`
	CreatedAt time.Time `json:"created_at"`
}
