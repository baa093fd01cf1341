package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
	"github.com/minikapp/minik/internal/websocket"
)

var completionStatuses = map[string]bool{
	"pending":   true,
	"completed": true,
	"skipped":   true,
}

type ActivityHandler struct {
	activities *store.ActivityStore
	children   *store.ChildStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewActivityHandler(as *store.ActivityStore, cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: as, children: cs, hub: hub, logger: logger}
}

type activityRequest struct {
	ChildID         int64   `json:"child_id"`
	ActivityDate    string  `json:"activity_date"`
	ActivityTime    *string `json:"activity_time"`
	ActivityType    string  `json:"activity_type"`
	Description     string  `json:"description"`
	DurationMinutes *int    `json:"duration_minutes"`
	Notes           string  `json:"notes"`
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	userID := auth.UserID(r.Context())

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.ActivityType = strings.TrimSpace(req.ActivityType)
	if req.ActivityType == "" {
		writeError(w, http.StatusBadRequest, "activity_type is required")
		return
	}
	if !validDate(req.ActivityDate) {
		writeError(w, http.StatusBadRequest, "activity_date must be YYYY-MM-DD format")
		return
	}
	if req.ActivityTime != nil && !validClockTime(*req.ActivityTime) {
		writeError(w, http.StatusBadRequest, "activity_time must be HH:MM format")
		return
	}

	child, err := h.children.GetByID(req.ChildID, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check child")
		return
	}
	if child == nil {
		writeError(w, http.StatusBadRequest, "child not found")
		return
	}

	a, err := h.activities.Create(model.Activity{
		ChildID:         req.ChildID,
		ActivityDate:    req.ActivityDate,
		ActivityTime:    req.ActivityTime,
		ActivityType:    req.ActivityType,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		RecordedBy:      &userID,
	})
	if err != nil {
		h.logger.Error("create activity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record activity")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("activity", "created", a.ID, nil))
	writeJSON(w, http.StatusCreated, a)
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" {
		start = "0001-01-01"
	}
	if end == "" {
		end = "9999-12-31"
	}
	if !validDate(start) || !validDate(end) {
		writeError(w, http.StatusBadRequest, "start and end must be YYYY-MM-DD format")
		return
	}

	activities, err := h.activities.ListByChild(childID, familyID, start, end)
	if err != nil {
		h.logger.Error("list activities", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list activities")
		return
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

type completionStatusRequest struct {
	CompletionStatus string `json:"completion_status"`
}

func (h *ActivityHandler) SetCompletionStatus(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req completionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !completionStatuses[req.CompletionStatus] {
		writeError(w, http.StatusBadRequest, "completion_status must be pending, completed, or skipped")
		return
	}

	if err := h.activities.SetCompletionStatus(id, familyID, req.CompletionStatus); err != nil {
		h.logger.Error("set activity status", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update activity")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("activity", "updated", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.activities.Delete(id, familyID); err != nil {
		h.logger.Error("delete activity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete activity")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("activity", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
