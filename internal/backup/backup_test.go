package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/minikapp/minik/internal/database"
	"github.com/minikapp/minik/internal/store"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(input.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(input.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(input.Key)
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func setupManagerTest(t *testing.T) (*Manager, *fakeS3, *store.BackupStore) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "minik.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backups := store.NewBackupStore(db)
	cfg := Config{
		S3: S3Config{
			Bucket:    "minik-backups",
			Region:    "auto",
			AccessKey: "test-access",
			SecretKey: "test-secret",
		},
		DBPath:        dbPath,
		Passphrase:    "test-passphrase",
		ScheduleHour:  3,
		RetentionDays: 30,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(cfg, db, backups, logger)

	client := newFakeS3()
	m.client = client
	return m, client, backups
}

func TestManagerDisabledWithoutPassphrase(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := Config{
		S3:     S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"},
		DBPath: "/tmp/none.db",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(cfg, db, store.NewBackupStore(db), logger)

	if m.Enabled() {
		t.Error("manager enabled without a passphrase")
	}
	if got := m.Status().State; got != StateDisabled {
		t.Errorf("state = %q, want %q", got, StateDisabled)
	}
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Error("RunNow succeeded on disabled manager, want error")
	}
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	m, client, backups := setupManagerTest(t)

	record, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	if record.SizeBytes <= 0 {
		t.Errorf("size_bytes = %d, want > 0", record.SizeBytes)
	}

	client.mu.Lock()
	data, ok := client.objects[record.ObjectKey]
	client.mu.Unlock()
	if !ok {
		t.Fatalf("object %q not uploaded", record.ObjectKey)
	}
	if int64(len(data)) != record.SizeBytes {
		t.Errorf("uploaded %d bytes, record says %d", len(data), record.SizeBytes)
	}

	// The upload must decrypt back to a valid SQLite file.
	dir := t.TempDir()
	enc := filepath.Join(dir, "dl.enc")
	dec := filepath.Join(dir, "dl.db")
	if err := os.WriteFile(enc, data, 0600); err != nil {
		t.Fatalf("write download: %v", err)
	}
	if err := DecryptFile(enc, dec, "test-passphrase"); err != nil {
		t.Fatalf("decrypt upload: %v", err)
	}
	header := make([]byte, 16)
	f, err := os.Open(dec)
	if err != nil {
		t.Fatalf("open decrypted: %v", err)
	}
	defer f.Close()
	if _, err := io.ReadFull(f, header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	if string(header) != "SQLite format 3\x00" {
		t.Errorf("decrypted header = %q, want SQLite magic", header)
	}

	latest, err := backups.Latest()
	if err != nil {
		t.Fatalf("latest backup: %v", err)
	}
	if latest == nil || latest.ObjectKey != record.ObjectKey {
		t.Errorf("latest record = %+v, want key %q", latest, record.ObjectKey)
	}
	if got := m.Status().State; got != StateIdle {
		t.Errorf("state after backup = %q, want %q", got, StateIdle)
	}
}

func TestRunNowUploadFailureSetsErrorState(t *testing.T) {
	m, client, _ := setupManagerTest(t)
	client.putErr = io.ErrUnexpectedEOF

	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("RunNow succeeded with failing upload, want error")
	}
	st := m.Status()
	if st.State != StateError {
		t.Errorf("state = %q, want %q", st.State, StateError)
	}
	if st.Error == "" {
		t.Error("status error message empty")
	}
}

func TestCleanupDeletesExpiredBackups(t *testing.T) {
	m, client, backups := setupManagerTest(t)

	old, err := backups.Record("backups/old.db.enc", 100)
	if err != nil {
		t.Fatalf("record old backup: %v", err)
	}
	fresh, err := backups.Record("backups/fresh.db.enc", 200)
	if err != nil {
		t.Fatalf("record fresh backup: %v", err)
	}
	// Backdate the first record past the retention window.
	if _, err := m.db.Exec(
		`UPDATE backups SET created_at = ? WHERE id = ?`,
		time.Now().UTC().AddDate(0, 0, -45), old.ID,
	); err != nil {
		t.Fatalf("backdate record: %v", err)
	}

	if err := m.Cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	client.mu.Lock()
	deleted := append([]string(nil), client.deleted...)
	client.mu.Unlock()
	if len(deleted) != 1 || deleted[0] != old.ObjectKey {
		t.Errorf("deleted objects = %v, want [%s]", deleted, old.ObjectKey)
	}

	remaining, err := backups.List(10)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ObjectKey != fresh.ObjectKey {
		t.Errorf("remaining records = %+v, want only %q", remaining, fresh.ObjectKey)
	}
}

func TestDownloadStreamsObject(t *testing.T) {
	m, client, _ := setupManagerTest(t)

	record, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	body, err := m.Download(context.Background(), record)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	client.mu.Lock()
	want := client.objects[record.ObjectKey]
	client.mu.Unlock()
	if len(data) != len(want) {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(want))
	}
}
