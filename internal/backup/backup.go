// Package backup uploads encrypted snapshots of the SQLite database to
// S3-compatible storage on a daily schedule.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
)

// s3Client covers the S3 calls the manager makes; tests substitute a fake.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds the manager configuration. Passphrase encrypts every
// snapshot; an empty passphrase disables backups even with S3 configured.
type Config struct {
	S3            S3Config
	DBPath        string
	Passphrase    string
	ScheduleHour  int // UTC hour of the daily run
	RetentionDays int
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Manager runs scheduled and on-demand database backups.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status
	logger *slog.Logger

	db      *sql.DB
	backups *store.BackupStore
	client  s3Client

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, db *sql.DB, backups *store.BackupStore, logger *slog.Logger) *Manager {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	m := &Manager{
		cfg:     cfg,
		db:      db,
		backups: backups,
		logger:  logger.With("component", "backup"),
		status:  Status{State: StateDisabled},
	}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the manager has everything it needs to run.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Start begins the schedule loop. No-op when disabled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) checkSchedule(ctx context.Context) {
	now := time.Now().UTC()
	if now.Hour() != m.cfg.ScheduleHour || now.Minute() != 0 {
		return
	}

	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
		return
	}
	if err := m.Cleanup(ctx); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// RunNow checkpoints the WAL, copies the database, encrypts the copy, and
// uploads it. The record of the upload lands in the backups table.
func (m *Manager) RunNow(ctx context.Context) (*model.BackupRecord, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("backup not configured")
	}

	m.setStatus(Status{State: StateRunning})

	fail := func(err error) (*model.BackupRecord, error) {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, err
	}

	tmpDir := os.TempDir()
	id := uuid.NewString()
	dbCopy := filepath.Join(tmpDir, "minik-backup-"+id+".db")
	encFile := filepath.Join(tmpDir, "minik-backup-"+id+".db.enc")
	defer os.Remove(dbCopy)
	defer os.Remove(encFile)

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fail(fmt.Errorf("wal checkpoint: %w", err))
	}
	if err := copyFile(m.cfg.DBPath, dbCopy); err != nil {
		return fail(fmt.Errorf("copy database: %w", err))
	}

	salt, err := GenerateSalt()
	if err != nil {
		return fail(err)
	}
	if err := EncryptFile(dbCopy, encFile, m.cfg.Passphrase, salt); err != nil {
		return fail(fmt.Errorf("encrypt: %w", err))
	}

	encData, err := os.Open(encFile)
	if err != nil {
		return fail(fmt.Errorf("open encrypted file: %w", err))
	}
	defer encData.Close()
	stat, err := encData.Stat()
	if err != nil {
		return fail(fmt.Errorf("stat encrypted file: %w", err))
	}

	objectKey := fmt.Sprintf("backups/%s-%s.db.enc", time.Now().UTC().Format("2006-01-02T150405Z"), id)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectKey),
		Body:          encData,
		ContentLength: aws.Int64(stat.Size()),
	})
	if err != nil {
		return fail(fmt.Errorf("upload to s3: %w", err))
	}

	record, err := m.backups.Record(objectKey, stat.Size())
	if err != nil {
		return fail(fmt.Errorf("record backup: %w", err))
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "object_key", objectKey, "size_bytes", stat.Size())
	return record, nil
}

// Download streams the encrypted object of one recorded backup.
func (m *Manager) Download(ctx context.Context, record *model.BackupRecord) (io.ReadCloser, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("backup not configured")
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.ObjectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	return result.Body, nil
}

// Cleanup deletes uploads older than the retention period, S3 objects first.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	retention := m.cfg.RetentionDays
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retention)
	keys, err := m.backups.DeleteOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Error("delete s3 object failed", "object_key", key, "error", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
