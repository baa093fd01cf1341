package store

import (
	"context"
	"testing"

	"github.com/minikapp/minik/internal/database"
	"github.com/minikapp/minik/internal/model"
)

func setupEventTestDB(t *testing.T) (*EventStore, *FamilyStore, *ChildStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEventStore(db), NewFamilyStore(db), NewChildStore(db)
}

func TestEventCRUD(t *testing.T) {
	es, fs, cs := setupEventTestDB(t)

	family, _ := fs.Create("Eriksen")
	child, _ := cs.Create(family.ID, "Nora", "2019-04-02", "female", "A+", "")

	eventTime := "14:30"
	event, err := es.Create(model.CalendarEvent{
		ChildID:         child.ID,
		Title:           "Neurology follow-up",
		EventDate:       "2026-09-10",
		EventTime:       &eventTime,
		EventType:       model.EventTypeAppointment,
		Color:           model.EventTypeColors[model.EventTypeAppointment],
		ReminderMinutes: 60,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.Title != "Neurology follow-up" {
		t.Errorf("title = %q, want %q", event.Title, "Neurology follow-up")
	}
	if event.EventTime == nil || *event.EventTime != "14:30" {
		t.Errorf("event_time = %v, want 14:30", event.EventTime)
	}
	if event.ReminderMinutes != 60 {
		t.Errorf("reminder_minutes = %d, want 60", event.ReminderMinutes)
	}
	if event.IsCompleted {
		t.Error("new event should not be completed")
	}

	got, err := es.GetByID(event.ID, family.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got == nil {
		t.Fatal("expected event, got nil")
	}
	if got.EventType != model.EventTypeAppointment {
		t.Errorf("event_type = %q, want appointment", got.EventType)
	}

	// Update
	got.Title = "Neurology follow-up (moved)"
	got.EventDate = "2026-09-11"
	updated, err := es.Update(event.ID, family.ID, *got)
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if updated.Title != "Neurology follow-up (moved)" {
		t.Errorf("title after update = %q", updated.Title)
	}
	if updated.EventDate != "2026-09-11" {
		t.Errorf("event_date after update = %q", updated.EventDate)
	}

	// Complete
	completed, err := es.SetCompleted(event.ID, family.ID, true)
	if err != nil {
		t.Fatalf("set completed: %v", err)
	}
	if !completed.IsCompleted {
		t.Error("expected completed")
	}

	// Delete
	if err := es.Delete(event.ID, family.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	gone, err := es.GetByID(event.ID, family.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if gone != nil {
		t.Error("expected nil after delete")
	}
}

func TestEventFamilyScoping(t *testing.T) {
	es, fs, cs := setupEventTestDB(t)

	familyA, _ := fs.Create("A")
	familyB, _ := fs.Create("B")
	child, _ := cs.Create(familyA.ID, "Ivy", "2020-01-01", "", "", "")

	event, err := es.Create(model.CalendarEvent{
		ChildID:   child.ID,
		Title:     "Checkup",
		EventDate: "2026-09-01",
		EventType: model.EventTypeAppointment,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	// Another family cannot see, update, or delete the event.
	got, err := es.GetByID(event.ID, familyB.ID)
	if err != nil {
		t.Fatalf("cross-family get: %v", err)
	}
	if got != nil {
		t.Error("cross-family get should return nil")
	}

	crossed, err := es.SetCompleted(event.ID, familyB.ID, true)
	if err != nil {
		t.Fatalf("cross-family complete: %v", err)
	}
	if crossed != nil {
		t.Error("cross-family complete should return nil")
	}
	fresh, _ := es.GetByID(event.ID, familyA.ID)
	if fresh.IsCompleted {
		t.Error("cross-family complete must not change the event")
	}

	if err := es.Delete(event.ID, familyB.ID); err != nil {
		t.Fatalf("cross-family delete: %v", err)
	}
	still, _ := es.GetByID(event.ID, familyA.ID)
	if still == nil {
		t.Error("event should survive cross-family delete")
	}
}

func TestListForReminder(t *testing.T) {
	es, fs, cs := setupEventTestDB(t)

	family, _ := fs.Create("F")
	child, _ := cs.Create(family.ID, "Leo", "2018-06-15", "", "", "")

	mk := func(title, date string, minutes int, completed bool) *model.CalendarEvent {
		t.Helper()
		e, err := es.Create(model.CalendarEvent{
			ChildID:         child.ID,
			Title:           title,
			EventDate:       date,
			EventType:       model.EventTypeMedication,
			ReminderMinutes: minutes,
		})
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		if completed {
			if _, err := es.SetCompleted(e.ID, family.ID, true); err != nil {
				t.Fatalf("complete %s: %v", title, err)
			}
		}
		return e
	}

	mk("in window", "2026-09-05", 15, false)
	mk("wrong lead time", "2026-09-05", 60, false)
	mk("out of range", "2026-09-20", 15, false)
	mk("done", "2026-09-05", 15, true)
	mk("no reminder", "2026-09-05", 0, false)

	due, err := es.ListForReminder(context.Background(), child.ID, 15, "2026-09-05", "2026-09-06")
	if err != nil {
		t.Fatalf("list for reminder: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("got %d events, want 1", len(due))
	}
	if due[0].Title != "in window" {
		t.Errorf("title = %q, want %q", due[0].Title, "in window")
	}
}

func TestListByChildOrdering(t *testing.T) {
	es, fs, cs := setupEventTestDB(t)

	family, _ := fs.Create("F")
	child, _ := cs.Create(family.ID, "Mia", "2021-03-03", "", "", "")

	late := "16:00"
	early := "08:00"
	es.Create(model.CalendarEvent{ChildID: child.ID, Title: "second", EventDate: "2026-09-02", EventTime: &early, EventType: model.EventTypeOther})
	es.Create(model.CalendarEvent{ChildID: child.ID, Title: "third", EventDate: "2026-09-02", EventTime: &late, EventType: model.EventTypeOther})
	es.Create(model.CalendarEvent{ChildID: child.ID, Title: "first", EventDate: "2026-09-01", EventType: model.EventTypeOther})

	events, err := es.ListByChild(child.ID, family.ID, "2026-09-01", "2026-09-30")
	if err != nil {
		t.Fatalf("list by child: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if events[i].Title != w {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Title, w)
		}
	}
}
