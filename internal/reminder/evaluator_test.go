package reminder

import (
	"testing"
	"time"

	"github.com/minikapp/minik/internal/model"
)

func timedEvent(id int64, date, clock string, minutes int) model.CalendarEvent {
	return model.CalendarEvent{
		ID:              id,
		Title:           "event",
		EventDate:       date,
		EventTime:       &clock,
		EventType:       model.EventTypeAppointment,
		ReminderMinutes: minutes,
	}
}

func TestDueTimedEvents(t *testing.T) {
	now := time.Date(2026, time.September, 5, 10, 0, 0, 0, time.UTC)

	events := []model.CalendarEvent{
		timedEvent(1, "2026-09-05", "10:10", 15), // inside the 15 min window
		timedEvent(2, "2026-09-05", "10:20", 15), // outside
		timedEvent(3, "2026-09-05", "09:55", 15), // already started
		timedEvent(4, "2026-09-05", "11:30", 60), // 90 min out with a 60 min lead
	}

	due := Due(events, 15, now)
	if len(due) != 1 {
		t.Fatalf("got %d due events, want 1: %v", len(due), due)
	}
	if due[0].ID != 1 {
		t.Errorf("due event = %d, want 1", due[0].ID)
	}

	// The 60-minute pass picks up nothing either: event 4 starts beyond
	// its own window.
	due = Due(events, 60, now)
	if len(due) != 0 {
		t.Fatalf("got %d due events in 60 min bucket, want 0", len(due))
	}

	// Half an hour later it is inside the window.
	due = Due(events, 60, now.Add(30*time.Minute))
	if len(due) != 1 || due[0].ID != 4 {
		t.Fatalf("due = %v, want event 4", due)
	}
}

func TestDueSkipsCompletedAndUnset(t *testing.T) {
	now := time.Date(2026, time.September, 5, 10, 0, 0, 0, time.UTC)

	completed := timedEvent(1, "2026-09-05", "10:10", 15)
	completed.IsCompleted = true
	unset := timedEvent(2, "2026-09-05", "10:10", 0)

	if due := Due([]model.CalendarEvent{completed, unset}, 15, now); len(due) != 0 {
		t.Errorf("got %d due events, want 0", len(due))
	}
}

func TestDueDateOnlyAllDay(t *testing.T) {
	now := time.Date(2026, time.September, 5, 21, 30, 0, 0, time.UTC)

	today := model.CalendarEvent{ID: 1, EventDate: "2026-09-05", EventType: model.EventTypeOther, ReminderMinutes: 15}
	tomorrow := model.CalendarEvent{ID: 2, EventDate: "2026-09-06", EventType: model.EventTypeOther, ReminderMinutes: 15}

	// A date-only event stays due for its whole calendar day, even late
	// in the evening when the window no longer reaches midnight.
	due := Due([]model.CalendarEvent{today, tomorrow}, 15, now)
	if len(due) != 1 || due[0].ID != 1 {
		t.Fatalf("due = %v, want only today's event", due)
	}
}

func TestDueDateOnlyAcrossMidnight(t *testing.T) {
	now := time.Date(2026, time.September, 5, 23, 50, 0, 0, time.UTC)

	tomorrow := model.CalendarEvent{ID: 1, EventDate: "2026-09-06", EventType: model.EventTypeOther, ReminderMinutes: 60}
	dayAfter := model.CalendarEvent{ID: 2, EventDate: "2026-09-07", EventType: model.EventTypeOther, ReminderMinutes: 60}

	// At 23:50 the 60-minute window reaches into tomorrow, so tomorrow's
	// date-only event is already due. The day after stays out of range.
	due := Due([]model.CalendarEvent{tomorrow, dayAfter}, 60, now)
	if len(due) != 1 || due[0].ID != 1 {
		t.Fatalf("due = %v, want only tomorrow's event", due)
	}
}

func TestDueOrdering(t *testing.T) {
	now := time.Date(2026, time.September, 5, 10, 0, 0, 0, time.UTC)

	events := []model.CalendarEvent{
		timedEvent(3, "2026-09-05", "10:12", 15),
		timedEvent(1, "2026-09-05", "10:05", 15),
		{ID: 2, EventDate: "2026-09-05", EventType: model.EventTypeOther, ReminderMinutes: 15},
	}

	due := Due(events, 15, now)
	if len(due) != 3 {
		t.Fatalf("got %d due events, want 3", len(due))
	}
	// Date-only resolves to midnight and sorts first.
	want := []int64{2, 1, 3}
	for i, id := range want {
		if due[i].ID != id {
			t.Errorf("due[%d] = %d, want %d", i, due[i].ID, id)
		}
	}
}

func TestCategoryFor(t *testing.T) {
	cases := map[string]string{
		model.EventTypeMedication:  model.CategoryMedicationDue,
		model.EventTypeAppointment: model.CategoryAppointmentDue,
		model.EventTypeTest:        model.CategoryTestDue,
		model.EventTypeSeizure:     model.CategoryEventReminder,
		model.EventTypeOther:       model.CategoryEventReminder,
	}
	for eventType, want := range cases {
		if got := CategoryFor(eventType); got != want {
			t.Errorf("CategoryFor(%q) = %q, want %q", eventType, got, want)
		}
	}
}
