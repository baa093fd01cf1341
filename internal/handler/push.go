package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/push"
	"github.com/minikapp/minik/internal/store"
)

type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe registers a browser push subscription. Re-subscribing the same
// endpoint updates the existing row instead of duplicating it.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	familyID := auth.FamilyID(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.pushStore.CreateSubscription(userID, familyID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.pushStore.DeleteSubscription(id, familyID); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	familyID := auth.FamilyID(r.Context())

	subs, err := h.pushStore.ListByUser(userID, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

// TestNotification pushes a throwaway notification to every subscription
// of the calling user so they can verify the browser side works.
func (h *PushHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	familyID := auth.FamilyID(r.Context())

	subs, err := h.pushStore.ListByUser(userID, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	payload := push.Payload{
		Title: "Test Notification",
		Body:  "Push notifications are working!",
		URL:   "/settings",
		Tag:   "test",
	}

	sent := 0
	for i := range subs {
		if err := h.service.Send(&subs[i], payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				if derr := h.pushStore.DeleteByEndpoint(subs[i].Endpoint); derr != nil {
					h.logger.Error("prune expired subscription", "error", derr)
				}
				continue
			}
			h.logger.Error("test push send", "error", err)
			continue
		}
		sent++
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
