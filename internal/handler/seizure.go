package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
	"github.com/minikapp/minik/internal/websocket"
)

type SeizureHandler struct {
	seizures *store.SeizureStore
	children *store.ChildStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewSeizureHandler(ss *store.SeizureStore, cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *SeizureHandler {
	return &SeizureHandler{seizures: ss, children: cs, hub: hub, logger: logger}
}

type seizureRequest struct {
	ChildID          int64      `json:"child_id"`
	StartedAt        *time.Time `json:"started_at"`
	DurationMinutes  *int       `json:"duration_minutes"`
	SeizureType      string     `json:"seizure_type"`
	Observations     string     `json:"observations"`
	PostSeizureState string     `json:"post_seizure_state"`
	EmergencyAction  bool       `json:"emergency_action"`
	Notes            string     `json:"notes"`
}

func (h *SeizureHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	userID := auth.UserID(r.Context())

	var req seizureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.StartedAt == nil {
		writeError(w, http.StatusBadRequest, "started_at is required")
		return
	}
	if req.DurationMinutes != nil && *req.DurationMinutes < 0 {
		writeError(w, http.StatusBadRequest, "duration_minutes must not be negative")
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

	sz, err := h.seizures.Create(model.Seizure{
		ChildID:          req.ChildID,
		StartedAt:        *req.StartedAt,
		DurationMinutes:  req.DurationMinutes,
		SeizureType:      req.SeizureType,
		Observations:     req.Observations,
		PostSeizureState: req.PostSeizureState,
		EmergencyAction:  req.EmergencyAction,
		Notes:            req.Notes,
		RecordedBy:       &userID,
	})
	if err != nil {
		h.logger.Error("create seizure record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record seizure")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("seizure", "created", sz.ID, nil))
	writeJSON(w, http.StatusCreated, sz)
}

func (h *SeizureHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}

	seizures, err := h.seizures.ListByChild(childID, familyID, queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("list seizures", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list seizures")
		return
	}
	if seizures == nil {
		seizures = []model.Seizure{}
	}
	writeJSON(w, http.StatusOK, seizures)
}

func (h *SeizureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.seizures.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get seizure")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "seizure not found")
		return
	}

	if err := h.seizures.Delete(id, familyID); err != nil {
		h.logger.Error("delete seizure record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete seizure")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("seizure", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
