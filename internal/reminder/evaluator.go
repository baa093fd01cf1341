// Package reminder decides which calendar entries are due for a
// notification and dispatches them to each family member's enabled
// channels.
package reminder

import (
	"fmt"
	"sort"
	"time"

	"github.com/minikapp/minik/internal/model"
)

// Buckets are the lead times the scheduler polls for. Events with other
// reminder settings only fire when their bucket is polled.
var DefaultBuckets = []int{15, 60}

// EventInstant resolves the moment an event starts. Date-only events
// resolve to midnight local time; the second return is false for them.
func EventInstant(e model.CalendarEvent, loc *time.Location) (time.Time, bool, error) {
	if e.EventTime == nil {
		t, err := time.ParseInLocation("2006-01-02", e.EventDate, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("parse event date %q: %w", e.EventDate, err)
		}
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", e.EventDate+" "+*e.EventTime, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse event time %q %q: %w", e.EventDate, *e.EventTime, err)
	}
	return t, true, nil
}

// Due filters events to those whose reminder should fire in the bucket's
// window [now, now+bucket]. An event is only ever evaluated against the
// bucket matching its own reminder setting, so a 60-minute event 90
// minutes out stays silent during a 15-minute pass.
//
// Timed events are due when their start falls inside the window.
// Date-only events are due for the whole of their calendar day, so one
// dated tomorrow becomes due as soon as the window crosses midnight.
// Completed events and events without a reminder are never due. Results
// come back in start order.
func Due(events []model.CalendarEvent, bucket int, now time.Time) []model.CalendarEvent {
	type dueEvent struct {
		event model.CalendarEvent
		at    time.Time
	}
	var due []dueEvent

	windowEnd := now.Add(time.Duration(bucket) * time.Minute)
	today := now.Format("2006-01-02")
	lastDay := windowEnd.Format("2006-01-02")

	for _, e := range events {
		if e.IsCompleted || e.ReminderMinutes == 0 || e.ReminderMinutes != bucket {
			continue
		}

		at, timed, err := EventInstant(e, now.Location())
		if err != nil {
			continue
		}

		if !timed {
			// YYYY-MM-DD compares correctly as a string.
			if e.EventDate >= today && e.EventDate <= lastDay {
				due = append(due, dueEvent{e, at})
			}
			continue
		}
		if at.Before(now) || at.After(windowEnd) {
			continue
		}
		due = append(due, dueEvent{e, at})
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].event.ID < due[j].event.ID
		}
		return due[i].at.Before(due[j].at)
	})

	out := make([]model.CalendarEvent, len(due))
	for i, d := range due {
		out[i] = d.event
	}
	return out
}

// CategoryFor maps an event type to its notification category.
func CategoryFor(eventType string) string {
	switch eventType {
	case model.EventTypeMedication:
		return model.CategoryMedicationDue
	case model.EventTypeAppointment:
		return model.CategoryAppointmentDue
	case model.EventTypeTest:
		return model.CategoryTestDue
	default:
		return model.CategoryEventReminder
	}
}
