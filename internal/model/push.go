package model

import "time"

type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	FamilyID   int64     `json:"family_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// SentReminder records that a reminder was dispatched for a given
// (category, reference, lead time) so restarts or concurrent ticks
// cannot double-fire it.
type SentReminder struct {
	ID              int64     `json:"id"`
	FamilyID        int64     `json:"family_id"`
	Category        string    `json:"category"`
	ReferenceID     string    `json:"reference_id"`
	LeadTimeMinutes int       `json:"lead_time_minutes"`
	SentAt          time.Time `json:"sent_at"`
}
