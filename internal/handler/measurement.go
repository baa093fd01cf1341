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

type MeasurementHandler struct {
	measurements *store.MeasurementStore
	children     *store.ChildStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewMeasurementHandler(ms *store.MeasurementStore, cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *MeasurementHandler {
	return &MeasurementHandler{measurements: ms, children: cs, hub: hub, logger: logger}
}

type measurementRequest struct {
	ChildID             int64    `json:"child_id"`
	MeasurementDate     string   `json:"measurement_date"`
	WeightKg            *float64 `json:"weight_kg"`
	HeightCm            *float64 `json:"height_cm"`
	HeadCircumferenceCm *float64 `json:"head_circumference_cm"`
	TemperatureCelsius  *float64 `json:"temperature_celsius"`
	Notes               string   `json:"notes"`
}

func (h *MeasurementHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	userID := auth.UserID(r.Context())

	var req measurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validDate(req.MeasurementDate) {
		writeError(w, http.StatusBadRequest, "measurement_date must be YYYY-MM-DD format")
		return
	}
	if req.WeightKg == nil && req.HeightCm == nil && req.HeadCircumferenceCm == nil && req.TemperatureCelsius == nil {
		writeError(w, http.StatusBadRequest, "at least one measurement value is required")
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

	m, err := h.measurements.Create(model.Measurement{
		ChildID:             req.ChildID,
		MeasurementDate:     req.MeasurementDate,
		WeightKg:            req.WeightKg,
		HeightCm:            req.HeightCm,
		HeadCircumferenceCm: req.HeadCircumferenceCm,
		TemperatureCelsius:  req.TemperatureCelsius,
		Notes:               req.Notes,
		RecordedBy:          &userID,
	})
	if err != nil {
		h.logger.Error("create measurement", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record measurement")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("measurement", "created", m.ID, nil))
	writeJSON(w, http.StatusCreated, m)
}

func (h *MeasurementHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}

	measurements, err := h.measurements.ListByChild(childID, familyID, queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("list measurements", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list measurements")
		return
	}
	if measurements == nil {
		measurements = []model.Measurement{}
	}
	writeJSON(w, http.StatusOK, measurements)
}

func (h *MeasurementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.measurements.Delete(id, familyID); err != nil {
		h.logger.Error("delete measurement", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete measurement")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("measurement", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
