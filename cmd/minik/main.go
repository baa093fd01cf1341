package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/minikapp/minik/internal/backup"
	"github.com/minikapp/minik/internal/database"
	"github.com/minikapp/minik/internal/email"
	"github.com/minikapp/minik/internal/logging"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/push"
	"github.com/minikapp/minik/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "keygen" {
		keygen()
		return
	}

	logger := logging.Setup(os.Getenv("MINIK_LOG_LEVEL"))

	port := envOr("MINIK_PORT", "8080")
	dbPath := envOr("MINIK_DB_PATH", "minik.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	vapidPublic := os.Getenv("MINIK_VAPID_PUBLIC_KEY")
	vapidPrivate := os.Getenv("MINIK_VAPID_PRIVATE_KEY")
	if vapidPublic == "" || vapidPrivate == "" {
		logger.Warn("VAPID keys not set, push delivery will fail; run `minik keygen` to create a pair")
	}

	cfg := server.Config{
		VAPIDPublicKey:  vapidPublic,
		VAPIDPrivateKey: vapidPrivate,
		ReminderBuckets: parseBuckets(os.Getenv("MINIK_REMINDER_BUCKETS"), logger),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("MINIK_BACKUP_S3_ENDPOINT"),
				Bucket:    os.Getenv("MINIK_BACKUP_S3_BUCKET"),
				Region:    envOr("MINIK_BACKUP_S3_REGION", "auto"),
				AccessKey: os.Getenv("MINIK_BACKUP_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIK_BACKUP_S3_SECRET_KEY"),
			},
			DBPath:        dbPath,
			Passphrase:    os.Getenv("MINIK_BACKUP_PASSPHRASE"),
			ScheduleHour:  envInt("MINIK_BACKUP_HOUR", 3),
			RetentionDays: envInt("MINIK_BACKUP_RETENTION_DAYS", 30),
		},
	}

	emailClient := email.NewClient(
		os.Getenv("MINIK_POSTMARK_TOKEN"),
		os.Getenv("MINIK_FROM_EMAIL"),
		envOr("MINIK_BASE_URL", "http://localhost:"+port),
	)

	srv := server.New(db, cfg, emailClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()

	if srv.BackupManager().Enabled() {
		srv.BackupManager().Start(ctx)
		defer srv.BackupManager().Stop()
	}

	// Hourly sweep of expired sessions and stale rate-limit windows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("minik listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func keygen() {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate VAPID keys: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("MINIK_VAPID_PUBLIC_KEY=%s\nMINIK_VAPID_PRIVATE_KEY=%s\n", pub, priv)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseBuckets reads a comma-separated lead-time list, e.g. "15,60".
// Unsupported values are dropped with a warning; an empty result falls
// back to the scheduler default.
func parseBuckets(s string, logger *slog.Logger) []int {
	if s == "" {
		return nil
	}
	var buckets []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n == 0 || !model.ValidReminderMinutes(n) {
			logger.Warn("ignoring invalid reminder bucket", "value", part)
			continue
		}
		buckets = append(buckets, n)
	}
	return buckets
}
