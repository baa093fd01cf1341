package model

import "time"

type BackupRecord struct {
	ID        int64     `json:"id"`
	ObjectKey string    `json:"object_key"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
