package reminder

import (
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

// EventMessage builds the notification title and body for a due calendar
// event. The wording varies with the event type so a medication reminder
// reads differently from a generic one.
func EventMessage(e model.CalendarEvent, childName string) (title, body string) {
	when := "today"
	if e.EventTime != nil {
		when = "at " + *e.EventTime
	}

	switch e.EventType {
	case model.EventTypeMedication:
		return "Medication reminder",
			fmt.Sprintf("Time for %s's medication: %s %s", childName, e.Title, when)
	case model.EventTypeAppointment:
		return "Appointment reminder",
			fmt.Sprintf("%s has an appointment %s: %s", childName, when, e.Title)
	case model.EventTypeTest:
		return "Test reminder",
			fmt.Sprintf("%s has a test %s: %s", childName, when, e.Title)
	default:
		return "Reminder",
			fmt.Sprintf("%s: %s %s", childName, e.Title, when)
	}
}

// MedicationDueMessage announces a dose that is due or overdue right now,
// outside any calendar event.
func MedicationDueMessage(childName, medName string) (title, body string) {
	return "Medication due", fmt.Sprintf("%s's %s is due", childName, medName)
}

// SeizureNudgeMessage is the once-daily prompt to keep the seizure log
// current. It is not tied to any calendar event.
func SeizureNudgeMessage() (title, body string) {
	return "Seizure log", "Don't forget to record any seizure activity today"
}

// EventTag is the collapse key handed to the browser so a re-delivered
// reminder replaces the previous one instead of stacking.
func EventTag(eventID int64) string {
	return fmt.Sprintf("event-%d", eventID)
}

// EventRefID is the dedup key persisted per (family, category, lead time).
func EventRefID(eventID int64) string {
	return fmt.Sprintf("event-%d", eventID)
}

// DailyRefID keys a once-per-day reminder to its calendar date.
func DailyRefID(kind, date string) string {
	return fmt.Sprintf("%s-daily-%s", kind, date)
}
