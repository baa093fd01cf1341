package handler

import (
	"log/slog"
	"net/http"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
)

// NotificationHandler exposes the read side of the dispatch audit log.
// There is deliberately no write endpoint: rows only appear through the
// dispatcher.
type NotificationHandler struct {
	notifications *store.NotificationStore
	logger        *slog.Logger
}

func NewNotificationHandler(ns *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: ns, logger: logger}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	notifications, err := h.notifications.ListByUser(userID, queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("list notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) Count(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	count, err := h.notifications.CountByUser(userID)
	if err != nil {
		h.logger.Error("count notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
