package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/minikapp/minik/internal/model"
)

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

func (s *BackupStore) Record(objectKey string, sizeBytes int64) (*model.BackupRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO backups (object_key, size_bytes) VALUES (?, ?)`,
		objectKey, sizeBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var r model.BackupRecord
	err = s.db.QueryRow(
		`SELECT id, object_key, size_bytes, created_at FROM backups WHERE id = ?`, id,
	).Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get backup record: %w", err)
	}
	return &r, nil
}

func (s *BackupStore) Latest() (*model.BackupRecord, error) {
	var r model.BackupRecord
	err := s.db.QueryRow(
		`SELECT id, object_key, size_bytes, created_at FROM backups ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest backup: %w", err)
	}
	return &r, nil
}

// DeleteOlderThan removes records created before the cutoff and returns
// their object keys so the caller can delete the S3 objects too.
func (s *BackupStore) DeleteOlderThan(before time.Time) ([]string, error) {
	rows, err := s.db.Query(`SELECT object_key FROM backups WHERE created_at < ?`, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("list old backups: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan object key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(`DELETE FROM backups WHERE created_at < ?`, before.UTC()); err != nil {
		return nil, fmt.Errorf("delete old backups: %w", err)
	}
	return keys, nil
}

func (s *BackupStore) List(limit int) ([]model.BackupRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, object_key, size_bytes, created_at FROM backups ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var records []model.BackupRecord
	for rows.Next() {
		var r model.BackupRecord
		if err := rows.Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
