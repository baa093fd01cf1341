package reminder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/minikapp/minik/internal/database"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/push"
	"github.com/minikapp/minik/internal/store"
)

type schedulerFixture struct {
	scheduler  *Scheduler
	pushSender *fakePushSender
	events     *store.EventStore
	familyID   int64
	childID    int64
}

func setupSchedulerTest(t *testing.T) *schedulerFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	families := store.NewFamilyStore(db)
	users := store.NewUserStore(db)
	children := store.NewChildStore(db)
	events := store.NewEventStore(db)
	pushStore := store.NewPushStore(db)
	settings := store.NewSettingsStore(db)
	notifications := store.NewNotificationStore(db)

	family, err := families.Create("Test")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	user, err := users.Create("parent@example.com", "Parent", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := families.AddMember(family.ID, user.ID, "parent"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	child, err := children.Create(family.ID, "Nora", "2019-04-02", "", "", "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if _, err := pushStore.CreateSubscription(user.ID, family.ID, "https://push.example/s1", "p256dh", "auth", "Phone"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	sender := &fakePushSender{expire: map[string]bool{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := NewDispatcher(logger, sender, nil, pushStore, settings, notifications, users, families)
	scheduler := NewScheduler(logger, dispatcher, events, children, families, pushStore, nil)

	return &schedulerFixture{
		scheduler:  scheduler,
		pushSender: sender,
		events:     events,
		familyID:   family.ID,
		childID:    child.ID,
	}
}

func (f *schedulerFixture) sentWithTag(tag string) []push.Payload {
	var out []push.Payload
	for _, p := range f.pushSender.sentPayloads() {
		if p.Tag == tag {
			out = append(out, p)
		}
	}
	return out
}

func TestTickFiresDueReminder(t *testing.T) {
	f := setupSchedulerTest(t)

	soon := time.Now().Add(10 * time.Minute)
	clock := soon.Format("15:04")
	event, err := f.events.Create(model.CalendarEvent{
		ChildID:         f.childID,
		Title:           "Neurology checkup",
		EventDate:       soon.Format("2006-01-02"),
		EventTime:       &clock,
		EventType:       model.EventTypeAppointment,
		ReminderMinutes: 15,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	f.scheduler.tick(context.Background())

	sent := f.sentWithTag(EventTag(event.ID))
	if len(sent) != 1 {
		t.Fatalf("got %d reminders, want 1", len(sent))
	}
	if sent[0].Title != "Appointment reminder" {
		t.Errorf("title = %q", sent[0].Title)
	}

	// Ticking again does not refire the same reminder.
	f.scheduler.tick(context.Background())
	if sent := f.sentWithTag(EventTag(event.ID)); len(sent) != 1 {
		t.Errorf("got %d reminders after second tick, want 1", len(sent))
	}
}

func TestTickSkipsFarAndCompletedEvents(t *testing.T) {
	f := setupSchedulerTest(t)

	far := time.Now().Add(4 * time.Hour)
	farClock := far.Format("15:04")
	farEvent, _ := f.events.Create(model.CalendarEvent{
		ChildID:         f.childID,
		Title:           "Later",
		EventDate:       far.Format("2006-01-02"),
		EventTime:       &farClock,
		EventType:       model.EventTypeAppointment,
		ReminderMinutes: 60,
	})

	soon := time.Now().Add(5 * time.Minute)
	soonClock := soon.Format("15:04")
	doneEvent, _ := f.events.Create(model.CalendarEvent{
		ChildID:         f.childID,
		Title:           "Done already",
		EventDate:       soon.Format("2006-01-02"),
		EventTime:       &soonClock,
		EventType:       model.EventTypeMedication,
		ReminderMinutes: 15,
	})
	if _, err := f.events.SetCompleted(doneEvent.ID, f.familyID, true); err != nil {
		t.Fatalf("complete event: %v", err)
	}

	f.scheduler.tick(context.Background())

	if sent := f.sentWithTag(EventTag(farEvent.ID)); len(sent) != 0 {
		t.Errorf("event hours away fired %d reminders", len(sent))
	}
	if sent := f.sentWithTag(EventTag(doneEvent.ID)); len(sent) != 0 {
		t.Errorf("completed event fired %d reminders", len(sent))
	}
}

func TestTickHonorsCancelledContext(t *testing.T) {
	f := setupSchedulerTest(t)

	soon := time.Now().Add(10 * time.Minute)
	clock := soon.Format("15:04")
	event, err := f.events.Create(model.CalendarEvent{
		ChildID:         f.childID,
		Title:           "Physio session",
		EventDate:       soon.Format("2006-01-02"),
		EventTime:       &clock,
		EventType:       model.EventTypeAppointment,
		ReminderMinutes: 15,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.scheduler.tick(ctx)

	// The per-tick context reaches the event queries, so an expired tick
	// stops dispatching instead of draining its full workload.
	if sent := f.sentWithTag(EventTag(event.ID)); len(sent) != 0 {
		t.Errorf("cancelled tick fired %d reminders, want 0", len(sent))
	}

	// A fresh tick still delivers the reminder.
	f.scheduler.tick(context.Background())
	if sent := f.sentWithTag(EventTag(event.ID)); len(sent) != 1 {
		t.Errorf("got %d reminders after live tick, want 1", len(sent))
	}
}

func TestTickSendsDailySeizureNudge(t *testing.T) {
	f := setupSchedulerTest(t)

	f.scheduler.tick(context.Background())

	nudges := f.sentWithTag("seizure-reminder")
	if len(nudges) != 1 {
		t.Fatalf("got %d nudges, want 1", len(nudges))
	}

	// Once per day, not once per tick.
	f.scheduler.tick(context.Background())
	if nudges := f.sentWithTag("seizure-reminder"); len(nudges) != 1 {
		t.Errorf("got %d nudges after second tick, want 1", len(nudges))
	}
}

func TestStartStop(t *testing.T) {
	f := setupSchedulerTest(t)

	f.scheduler.Start(context.Background())
	f.scheduler.Stop()

	// Stop waits for the loop, so a second Stop is harmless only after
	// another Start.
	f.scheduler.Start(context.Background())
	f.scheduler.Stop()

	// The immediate first pass ran at least once.
	if len(f.pushSender.sentPayloads()) == 0 {
		t.Error("expected the startup pass to send the daily nudge")
	}
}
