package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/minikapp/minik/internal/backup"
	"github.com/minikapp/minik/internal/email"
	"github.com/minikapp/minik/internal/handler"
	"github.com/minikapp/minik/internal/middleware"
	"github.com/minikapp/minik/internal/push"
	"github.com/minikapp/minik/internal/reminder"
	"github.com/minikapp/minik/internal/store"
	ws "github.com/minikapp/minik/internal/websocket"
)

// Config carries everything the server needs beyond the database handle.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	ReminderBuckets []int
	Backup          backup.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH         *handler.AuthHandler
	childH        *handler.ChildHandler
	eventH        *handler.CalendarEventHandler
	medicationH   *handler.MedicationHandler
	seizureH      *handler.SeizureHandler
	nutritionH    *handler.NutritionHandler
	sleepH        *handler.SleepHandler
	measurementH  *handler.MeasurementHandler
	activityH     *handler.ActivityHandler
	settingsH     *handler.SettingsHandler
	pushH         *handler.PushHandler
	notificationH *handler.NotificationHandler
	reminderH     *handler.ReminderHandler
	backupH       *handler.BackupHandler

	sessionStore *store.SessionStore
	familyStore  *store.FamilyStore
	pushStore    *store.PushStore
	rateLimiter  *middleware.RateLimiter

	scheduler     *reminder.Scheduler
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	familyStore := store.NewFamilyStore(db)
	sessionStore := store.NewSessionStore(db)
	childStore := store.NewChildStore(db)
	eventStore := store.NewEventStore(db)
	medicationStore := store.NewMedicationStore(db)
	seizureStore := store.NewSeizureStore(db)
	nutritionStore := store.NewNutritionStore(db)
	sleepStore := store.NewSleepStore(db)
	measurementStore := store.NewMeasurementStore(db)
	activityStore := store.NewActivityStore(db)
	settingsStore := store.NewSettingsStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	pushService := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)

	dispatcher := reminder.NewDispatcher(
		logger, pushService, emailClient,
		pushStore, settingsStore, notificationStore, userStore, familyStore,
	)
	scheduler := reminder.NewScheduler(
		logger, dispatcher, eventStore, childStore, familyStore, pushStore, cfg.ReminderBuckets,
	)

	backupManager := backup.NewManager(cfg.Backup, db, backupStore, logger)

	return &Server{
		db:  db,
		hub: hub,

		authH:         handler.NewAuthHandler(userStore, familyStore, sessionStore, logger.With("component", "auth")),
		childH:        handler.NewChildHandler(childStore, hub, logger.With("component", "child")),
		eventH:        handler.NewCalendarEventHandler(eventStore, childStore, hub, logger.With("component", "calendar")),
		medicationH:   handler.NewMedicationHandler(medicationStore, childStore, hub, logger.With("component", "medication")),
		seizureH:      handler.NewSeizureHandler(seizureStore, childStore, hub, logger.With("component", "seizure")),
		nutritionH:    handler.NewNutritionHandler(nutritionStore, childStore, hub, logger.With("component", "nutrition")),
		sleepH:        handler.NewSleepHandler(sleepStore, childStore, hub, logger.With("component", "sleep")),
		measurementH:  handler.NewMeasurementHandler(measurementStore, childStore, hub, logger.With("component", "measurement")),
		activityH:     handler.NewActivityHandler(activityStore, childStore, hub, logger.With("component", "activity")),
		settingsH:     handler.NewSettingsHandler(settingsStore, logger.With("component", "settings")),
		pushH:         handler.NewPushHandler(pushStore, pushService, logger.With("component", "push")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		reminderH:     handler.NewReminderHandler(dispatcher, eventStore, childStore, medicationStore, logger.With("component", "reminder")),
		backupH:       handler.NewBackupHandler(backupManager, backupStore, logger.With("component", "backup")),

		sessionStore: sessionStore,
		familyStore:  familyStore,
		pushStore:    pushStore,
		rateLimiter:  middleware.NewRateLimiter(),

		scheduler:     scheduler,
		backupManager: backupManager,
		logger:        logger,
	}
}

// Scheduler returns the reminder scheduler so main can start and stop it.
func (s *Server) Scheduler() *reminder.Scheduler {
	return s.scheduler
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// PushStore returns the push store for cleanup tasks.
func (s *Server) PushStore() *store.PushStore {
	return s.pushStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimited(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.familyStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	parentOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireParent(h)
	}

	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Children
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("GET /api/children/{id}", s.childH.Get)
	mux.HandleFunc("PUT /api/children/{id}", s.childH.Update)
	mux.Handle("DELETE /api/children/{id}", parentOnly(s.childH.Delete))

	// Calendar events
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("POST /api/events/{id}/complete", s.eventH.SetCompleted)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	// Medications; the {id} on list routes is the child id
	mux.HandleFunc("POST /api/medications", s.medicationH.Create)
	mux.HandleFunc("GET /api/children/{id}/medications", s.medicationH.List)
	mux.HandleFunc("GET /api/medications/{id}", s.medicationH.Get)
	mux.HandleFunc("PUT /api/medications/{id}/active", s.medicationH.SetActive)
	mux.Handle("DELETE /api/medications/{id}", parentOnly(s.medicationH.Delete))
	mux.HandleFunc("POST /api/medications/{id}/doses", s.medicationH.AddDose)
	mux.HandleFunc("GET /api/medications/{id}/doses", s.medicationH.ListDoses)

	// Health logs
	mux.HandleFunc("POST /api/seizures", s.seizureH.Create)
	mux.HandleFunc("GET /api/children/{id}/seizures", s.seizureH.List)
	mux.HandleFunc("DELETE /api/seizures/{id}", s.seizureH.Delete)

	mux.HandleFunc("POST /api/nutrition", s.nutritionH.Create)
	mux.HandleFunc("GET /api/children/{id}/nutrition", s.nutritionH.List)
	mux.HandleFunc("DELETE /api/nutrition/{id}", s.nutritionH.Delete)

	mux.HandleFunc("POST /api/sleep", s.sleepH.Create)
	mux.HandleFunc("GET /api/children/{id}/sleep", s.sleepH.List)
	mux.HandleFunc("DELETE /api/sleep/{id}", s.sleepH.Delete)

	mux.HandleFunc("POST /api/measurements", s.measurementH.Create)
	mux.HandleFunc("GET /api/children/{id}/measurements", s.measurementH.List)
	mux.HandleFunc("DELETE /api/measurements/{id}", s.measurementH.Delete)

	mux.HandleFunc("POST /api/activities", s.activityH.Create)
	mux.HandleFunc("GET /api/children/{id}/activities", s.activityH.List)
	mux.HandleFunc("PUT /api/activities/{id}/status", s.activityH.SetCompletionStatus)
	mux.HandleFunc("DELETE /api/activities/{id}", s.activityH.Delete)

	// Notification settings and history
	mux.HandleFunc("GET /api/settings/notifications", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings/notifications", s.settingsH.Update)
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("GET /api/notifications/count", s.notificationH.Count)

	// Push subscriptions
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)

	// Manual reminder triggers
	mux.HandleFunc("POST /api/reminders/seizure-nudge", s.reminderH.SeizureNudge)
	mux.HandleFunc("POST /api/reminders/medication-due", s.reminderH.MedicationDue)
	mux.HandleFunc("POST /api/reminders/event-due", s.reminderH.EventDue)

	// Backups, parent only
	mux.Handle("GET /api/backups", parentOnly(s.backupH.List))
	mux.Handle("GET /api/backups/status", parentOnly(s.backupH.Status))
	mux.Handle("POST /api/backups/run", parentOnly(s.backupH.RunNow))
	mux.Handle("GET /api/backups/{id}/download", parentOnly(s.backupH.Download))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub))
}
