package model

import "time"

// Event types mirror the activity taxonomy shown on the calendar.
const (
	EventTypeSeizure     = "seizure"
	EventTypeMedication  = "medication"
	EventTypeNutrition   = "nutrition"
	EventTypeSleep       = "sleep"
	EventTypeTemperature = "temperature"
	EventTypeAppointment = "appointment"
	EventTypeTest        = "test"
	EventTypeActivity    = "activity"
	EventTypeReminder    = "reminder"
	EventTypeOther       = "other"
)

// EventTypeColors maps each event type to its default display color.
// The color on an event is overridable at creation time.
var EventTypeColors = map[string]string{
	EventTypeSeizure:     "#EF4444",
	EventTypeMedication:  "#3B82F6",
	EventTypeNutrition:   "#10B981",
	EventTypeSleep:       "#8B5CF6",
	EventTypeTemperature: "#F59E0B",
	EventTypeAppointment: "#06B6D4",
	EventTypeTest:        "#84CC16",
	EventTypeActivity:    "#F97316",
	EventTypeReminder:    "#EC4899",
	EventTypeOther:       "#6B7280",
}

// ReminderLeadTimes are the supported reminder_minutes values.
// Zero means no reminder.
var ReminderLeadTimes = []int{5, 15, 30, 60, 120}

// ValidReminderMinutes reports whether m is zero or a supported lead time.
func ValidReminderMinutes(m int) bool {
	if m == 0 {
		return true
	}
	for _, lt := range ReminderLeadTimes {
		if m == lt {
			return true
		}
	}
	return false
}

// ValidEventType reports whether t is a known event type.
func ValidEventType(t string) bool {
	_, ok := EventTypeColors[t]
	return ok
}

type CalendarEvent struct {
	ID              int64     `json:"id"`
	ChildID         int64     `json:"child_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	EventDate       string    `json:"event_date"`           // YYYY-MM-DD
	EventTime       *string   `json:"event_time"`           // HH:MM, nil for date-only events
	EventType       string    `json:"event_type"`
	Color           string    `json:"color"`
	IsRecurring     bool      `json:"is_recurring"`
	RecurrenceRule  string    `json:"recurrence_rule"`
	ReminderMinutes int       `json:"reminder_minutes"`
	IsCompleted     bool      `json:"is_completed"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
