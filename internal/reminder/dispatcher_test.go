package reminder

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/minikapp/minik/internal/database"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/push"
	"github.com/minikapp/minik/internal/store"
)

type fakePushSender struct {
	mu     sync.Mutex
	sent   []push.Payload
	err    error
	expire map[string]bool // endpoints that report 410
}

func (f *fakePushSender) Send(sub *model.PushSubscription, payload push.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expire[sub.Endpoint] {
		return push.ErrExpired
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakePushSender) sentPayloads() []push.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]push.Payload(nil), f.sent...)
}

type fakeEmailSender struct {
	configured bool
	sent       []string
}

func (f *fakeEmailSender) Configured() bool { return f.configured }

func (f *fakeEmailSender) SendReminder(toEmail, title, message string) error {
	f.sent = append(f.sent, toEmail)
	return nil
}

type dispatchFixture struct {
	dispatcher    *Dispatcher
	pushSender    *fakePushSender
	mail          *fakeEmailSender
	pushStore     *store.PushStore
	settings      *store.SettingsStore
	notifications *store.NotificationStore
	familyID      int64
	userID        int64
}

func setupDispatchTest(t *testing.T) *dispatchFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	families := store.NewFamilyStore(db)
	users := store.NewUserStore(db)
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

	sender := &fakePushSender{expire: map[string]bool{}}
	mail := &fakeEmailSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &dispatchFixture{
		dispatcher:    NewDispatcher(logger, sender, mail, pushStore, settings, notifications, users, families),
		pushSender:    sender,
		mail:          mail,
		pushStore:     pushStore,
		settings:      settings,
		notifications: notifications,
		familyID:      family.ID,
		userID:        user.ID,
	}
}

func (f *dispatchFixture) subscribe(t *testing.T, endpoint string) {
	t.Helper()
	if _, err := f.pushStore.CreateSubscription(f.userID, f.familyID, endpoint, "p256dh", "auth", "Phone"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}
}

func TestDispatchDelivers(t *testing.T) {
	f := setupDispatchTest(t)
	f.subscribe(t, "https://push.example/s1")

	f.dispatcher.Dispatch(f.familyID, model.CategoryAppointmentDue, "event-1", 15, "Appointment reminder", "Checkup at 14:30", "event-1")

	if len(f.pushSender.sent) != 1 {
		t.Fatalf("got %d pushes, want 1", len(f.pushSender.sent))
	}
	if f.pushSender.sent[0].Tag != "event-1" {
		t.Errorf("tag = %q", f.pushSender.sent[0].Tag)
	}
	if !f.pushSender.sent[0].RequireInteraction {
		t.Error("reminders should require interaction")
	}

	count, _ := f.notifications.CountByUser(f.userID)
	if count != 1 {
		t.Errorf("audit rows = %d, want 1", count)
	}
}

func TestDispatchIdempotent(t *testing.T) {
	f := setupDispatchTest(t)
	f.subscribe(t, "https://push.example/s1")

	for i := 0; i < 3; i++ {
		f.dispatcher.Dispatch(f.familyID, model.CategoryEventReminder, "event-7", 15, "Reminder", "msg", "event-7")
	}

	if len(f.pushSender.sent) != 1 {
		t.Errorf("got %d pushes after repeats, want 1", len(f.pushSender.sent))
	}
	count, _ := f.notifications.CountByUser(f.userID)
	if count != 1 {
		t.Errorf("audit rows = %d, want 1", count)
	}

	// A different lead time is a different reminder.
	f.dispatcher.Dispatch(f.familyID, model.CategoryEventReminder, "event-7", 60, "Reminder", "msg", "event-7")
	if len(f.pushSender.sent) != 2 {
		t.Errorf("got %d pushes, want 2", len(f.pushSender.sent))
	}
}

func TestDispatchMasterSwitchOff(t *testing.T) {
	f := setupDispatchTest(t)
	f.subscribe(t, "https://push.example/s1")

	st := model.DefaultUserSettings(f.userID)
	st.NotificationsEnabled = false
	if err := f.settings.Set(st); err != nil {
		t.Fatalf("set settings: %v", err)
	}

	f.dispatcher.Dispatch(f.familyID, model.CategoryEventReminder, "event-1", 15, "Reminder", "msg", "event-1")

	if len(f.pushSender.sent) != 0 {
		t.Errorf("got %d pushes, want 0", len(f.pushSender.sent))
	}
	count, _ := f.notifications.CountByUser(f.userID)
	if count != 0 {
		t.Errorf("audit rows = %d, want 0 when disabled", count)
	}
}

func TestDispatchChannelFlags(t *testing.T) {
	f := setupDispatchTest(t)
	f.subscribe(t, "https://push.example/s1")
	f.mail.configured = true

	st := model.DefaultUserSettings(f.userID)
	st.PushEnabled = false
	if err := f.settings.Set(st); err != nil {
		t.Fatalf("set settings: %v", err)
	}

	f.dispatcher.Dispatch(f.familyID, model.CategoryEventReminder, "event-1", 15, "Reminder", "msg", "event-1")

	if len(f.pushSender.sent) != 0 {
		t.Errorf("push disabled but %d pushes sent", len(f.pushSender.sent))
	}
	if len(f.mail.sent) != 1 {
		t.Errorf("got %d emails, want 1", len(f.mail.sent))
	}
	count, _ := f.notifications.CountByUser(f.userID)
	if count != 1 {
		t.Errorf("audit rows = %d, want 1", count)
	}
}

func TestDispatchNoSurfaceIsNoop(t *testing.T) {
	f := setupDispatchTest(t)
	// No subscription, email unconfigured.

	f.dispatcher.Dispatch(f.familyID, model.CategoryEventReminder, "event-1", 15, "Reminder", "msg", "event-1")

	if len(f.pushSender.sent) != 0 {
		t.Errorf("got %d pushes, want 0", len(f.pushSender.sent))
	}
	count, _ := f.notifications.CountByUser(f.userID)
	if count != 0 {
		t.Errorf("audit rows = %d, want 0 without a surface", count)
	}
}

func TestDispatchPrunesExpiredSubscription(t *testing.T) {
	f := setupDispatchTest(t)
	f.subscribe(t, "https://push.example/gone")
	f.pushSender.expire["https://push.example/gone"] = true

	f.dispatcher.Dispatch(f.familyID, model.CategoryEventReminder, "event-1", 15, "Reminder", "msg", "event-1")

	subs, err := f.pushStore.ListByUser(f.userID, f.familyID)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expired subscription should be pruned, got %d", len(subs))
	}
}

func TestDispatchSendFailureStillRecorded(t *testing.T) {
	f := setupDispatchTest(t)
	f.subscribe(t, "https://push.example/s1")
	f.pushSender.err = errors.New("push service down")

	f.dispatcher.Dispatch(f.familyID, model.CategoryEventReminder, "event-1", 15, "Reminder", "msg", "event-1")

	// The dedup row is written up front, so the failure is not retried
	// on the next tick.
	sent, err := f.pushStore.WasSent(f.familyID, model.CategoryEventReminder, "event-1", 15)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if !sent {
		t.Error("dedup row should exist even when delivery fails")
	}

	// And no audit row claims a delivery that never happened.
	count, _ := f.notifications.CountByUser(f.userID)
	if count != 0 {
		t.Errorf("audit rows = %d, want 0", count)
	}
}
