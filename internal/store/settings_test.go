package store

import (
	"testing"

	"github.com/minikapp/minik/internal/database"
	"github.com/minikapp/minik/internal/model"
)

func setupSettingsTestDB(t *testing.T) (*SettingsStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := NewUserStore(db)
	user, err := us.Create("parent@example.com", "Parent", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewSettingsStore(db), user.ID
}

func TestSettingsDefaults(t *testing.T) {
	ss, userID := setupSettingsTestDB(t)

	// No row yet: everything enabled, 15 minute default lead time.
	st, err := ss.Get(userID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if !st.NotificationsEnabled || !st.EmailEnabled || !st.PushEnabled {
		t.Errorf("defaults = %+v, want all enabled", st)
	}
	if st.DefaultReminderMinutes != 15 {
		t.Errorf("default_reminder_minutes = %d, want 15", st.DefaultReminderMinutes)
	}
}

func TestSettingsUpsert(t *testing.T) {
	ss, userID := setupSettingsTestDB(t)

	st := model.UserSettings{
		UserID:                 userID,
		NotificationsEnabled:   true,
		EmailEnabled:           false,
		PushEnabled:            true,
		DefaultReminderMinutes: 30,
	}
	if err := ss.Set(st); err != nil {
		t.Fatalf("set settings: %v", err)
	}

	got, err := ss.Get(userID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.EmailEnabled {
		t.Error("email should be disabled")
	}
	if got.DefaultReminderMinutes != 30 {
		t.Errorf("default_reminder_minutes = %d, want 30", got.DefaultReminderMinutes)
	}

	// Second Set updates the same row.
	st.NotificationsEnabled = false
	if err := ss.Set(st); err != nil {
		t.Fatalf("set settings again: %v", err)
	}
	got, _ = ss.Get(userID)
	if got.NotificationsEnabled {
		t.Error("notifications should be disabled after second set")
	}
}
