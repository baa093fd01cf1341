package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/minikapp/minik/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, user_id, family_id, endpoint, p256dh_key, auth_key, device_name, created_at`

func (s *PushStore) CreateSubscription(userID, familyID int64, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	result, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, family_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key, device_name = excluded.device_name`,
		userID, familyID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	id, _ := result.LastInsertId()

	// LastInsertId may be 0 on conflict update; re-query by endpoint
	if id == 0 {
		return s.getByEndpoint(endpoint)
	}
	return s.GetByID(id, familyID)
}

func (s *PushStore) GetByID(id, familyID int64) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.QueryRow(
		`SELECT `+pushCols+` FROM push_subscriptions WHERE id = ? AND family_id = ?`, id, familyID,
	).Scan(&sub.ID, &sub.UserID, &sub.FamilyID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) getByEndpoint(endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.QueryRow(
		`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	).Scan(&sub.ID, &sub.UserID, &sub.FamilyID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) ListByUser(userID, familyID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+pushCols+` FROM push_subscriptions WHERE user_id = ? AND family_id = ? ORDER BY created_at DESC`,
		userID, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by user: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (s *PushStore) DeleteSubscription(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

// RecordSent marks a reminder as dispatched for dedup. The insert is a
// no-op when the (family, category, reference, lead time) row already
// exists, so concurrent ticks collapse to a single record.
func (s *PushStore) RecordSent(familyID int64, category, refID string, leadTime int) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sent_reminders (family_id, category, reference_id, lead_time_minutes)
		 VALUES (?, ?, ?, ?)`,
		familyID, category, refID, leadTime,
	)
	if err != nil {
		return fmt.Errorf("record sent reminder: %w", err)
	}
	return nil
}

// WasSent checks whether a reminder was already dispatched.
func (s *PushStore) WasSent(familyID int64, category, refID string, leadTime int) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sent_reminders
		 WHERE family_id = ? AND category = ? AND reference_id = ? AND lead_time_minutes = ?`,
		familyID, category, refID, leadTime,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check sent reminder: %w", err)
	}
	return count > 0, nil
}

// CleanupSent deletes sent_reminders older than the given time.
func (s *PushStore) CleanupSent(before time.Time) error {
	_, err := s.db.Exec(`DELETE FROM sent_reminders WHERE sent_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("cleanup sent reminders: %w", err)
	}
	return nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.FamilyID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
