package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
)

type SettingsHandler struct {
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: ss, logger: logger}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	st, err := h.settings.Get(userID)
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type settingsRequest struct {
	NotificationsEnabled   bool `json:"notifications_enabled"`
	EmailEnabled           bool `json:"email_enabled"`
	PushEnabled            bool `json:"push_enabled"`
	DefaultReminderMinutes int  `json:"default_reminder_minutes"`
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !model.ValidReminderMinutes(req.DefaultReminderMinutes) {
		writeError(w, http.StatusBadRequest, "default_reminder_minutes must be 0, 5, 15, 30, 60, or 120")
		return
	}

	st := model.UserSettings{
		UserID:                 userID,
		NotificationsEnabled:   req.NotificationsEnabled,
		EmailEnabled:           req.EmailEnabled,
		PushEnabled:            req.PushEnabled,
		DefaultReminderMinutes: req.DefaultReminderMinutes,
	}
	if err := h.settings.Set(st); err != nil {
		h.logger.Error("update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	saved, err := h.settings.Get(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
