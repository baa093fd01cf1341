package store

import (
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns a user's notification settings, falling back to defaults when
// no row exists yet.
func (s *SettingsStore) Get(userID int64) (model.UserSettings, error) {
	var st model.UserSettings
	var notifInt, emailInt, pushInt int

	err := s.db.QueryRow(
		`SELECT user_id, notifications_enabled, email_enabled, push_enabled, default_reminder_minutes, updated_at
		 FROM user_settings WHERE user_id = ?`,
		userID,
	).Scan(&st.UserID, &notifInt, &emailInt, &pushInt, &st.DefaultReminderMinutes, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.DefaultUserSettings(userID), nil
	}
	if err != nil {
		return model.UserSettings{}, fmt.Errorf("get user settings: %w", err)
	}

	st.NotificationsEnabled = notifInt != 0
	st.EmailEnabled = emailInt != 0
	st.PushEnabled = pushInt != 0
	return st, nil
}

// Set upserts a user's notification settings.
func (s *SettingsStore) Set(st model.UserSettings) error {
	var notifInt, emailInt, pushInt int
	if st.NotificationsEnabled {
		notifInt = 1
	}
	if st.EmailEnabled {
		emailInt = 1
	}
	if st.PushEnabled {
		pushInt = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO user_settings (user_id, notifications_enabled, email_enabled, push_enabled, default_reminder_minutes, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
		   notifications_enabled = excluded.notifications_enabled,
		   email_enabled = excluded.email_enabled,
		   push_enabled = excluded.push_enabled,
		   default_reminder_minutes = excluded.default_reminder_minutes,
		   updated_at = CURRENT_TIMESTAMP`,
		st.UserID, notifInt, emailInt, pushInt, st.DefaultReminderMinutes,
	)
	if err != nil {
		return fmt.Errorf("set user settings: %w", err)
	}
	return nil
}
