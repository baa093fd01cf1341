package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/minikapp/minik/internal/model"
)

// NotificationStore is the append-only dispatch audit log. There are no
// update or delete operations on purpose.
type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Insert(userID int64, title, message, category string, sentAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO notifications (user_id, title, message, category, sent_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, title, message, category, sentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) ListByUser(userID int64, limit int) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, title, message, category, sent_at, created_at
		 FROM notifications WHERE user_id = ?
		 ORDER BY sent_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Category, &n.SentAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) CountByUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}
