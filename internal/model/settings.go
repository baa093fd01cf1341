package model

import "time"

// UserSettings controls notification delivery for one user. If
// NotificationsEnabled is false no dispatch happens regardless of the
// per-channel flags or per-event reminder settings.
type UserSettings struct {
	UserID                 int64     `json:"user_id"`
	NotificationsEnabled   bool      `json:"notifications_enabled"`
	EmailEnabled           bool      `json:"email_enabled"`
	PushEnabled            bool      `json:"push_enabled"`
	DefaultReminderMinutes int       `json:"default_reminder_minutes"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// DefaultUserSettings are the values assumed for a user without a settings row.
func DefaultUserSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:                 userID,
		NotificationsEnabled:   true,
		EmailEnabled:           true,
		PushEnabled:            true,
		DefaultReminderMinutes: 15,
	}
}
