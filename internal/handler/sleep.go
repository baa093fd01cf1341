package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
	"github.com/minikapp/minik/internal/websocket"
)

type SleepHandler struct {
	sleep    *store.SleepStore
	children *store.ChildStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewSleepHandler(ss *store.SleepStore, cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *SleepHandler {
	return &SleepHandler{sleep: ss, children: cs, hub: hub, logger: logger}
}

type sleepRequest struct {
	ChildID      int64   `json:"child_id"`
	SleepDate    string  `json:"sleep_date"`
	Bedtime      *string `json:"bedtime"`
	WakeTime     *string `json:"wake_time"`
	NightWakings int     `json:"night_wakings"`
	SleepQuality string  `json:"sleep_quality"`
	QualityNotes string  `json:"quality_notes"`
}

func (h *SleepHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	userID := auth.UserID(r.Context())

	var req sleepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validDate(req.SleepDate) {
		writeError(w, http.StatusBadRequest, "sleep_date must be YYYY-MM-DD format")
		return
	}
	if req.Bedtime != nil && !validClockTime(*req.Bedtime) {
		writeError(w, http.StatusBadRequest, "bedtime must be HH:MM format")
		return
	}
	if req.WakeTime != nil && !validClockTime(*req.WakeTime) {
		writeError(w, http.StatusBadRequest, "wake_time must be HH:MM format")
		return
	}
	if req.NightWakings < 0 {
		writeError(w, http.StatusBadRequest, "night_wakings must not be negative")
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

	rec, err := h.sleep.Create(model.SleepRecord{
		ChildID:      req.ChildID,
		SleepDate:    req.SleepDate,
		Bedtime:      req.Bedtime,
		WakeTime:     req.WakeTime,
		NightWakings: req.NightWakings,
		SleepQuality: req.SleepQuality,
		QualityNotes: req.QualityNotes,
		RecordedBy:   &userID,
	})
	if err != nil {
		h.logger.Error("create sleep record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record sleep")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("sleep", "created", rec.ID, nil))
	writeJSON(w, http.StatusCreated, rec)
}

// List returns a child's sleep records, optionally restricted to a date
// range via start and end query parameters.
func (h *SleepHandler) List(w http.ResponseWriter, r *http.Request) {
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

	records, err := h.sleep.ListByChild(childID, familyID, start, end)
	if err != nil {
		h.logger.Error("list sleep records", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sleep records")
		return
	}
	if records == nil {
		records = []model.SleepRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *SleepHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.sleep.Delete(id, familyID); err != nil {
		h.logger.Error("delete sleep record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete sleep record")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("sleep", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
