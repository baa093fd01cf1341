package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/medication"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/recurrence"
	"github.com/minikapp/minik/internal/store"
	"github.com/minikapp/minik/internal/websocket"
)

type MedicationHandler struct {
	medications *store.MedicationStore
	children    *store.ChildStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewMedicationHandler(ms *store.MedicationStore, cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *MedicationHandler {
	return &MedicationHandler{medications: ms, children: cs, hub: hub, logger: logger}
}

type medicationRequest struct {
	ChildID      int64   `json:"child_id"`
	Name         string  `json:"name"`
	Dosage       string  `json:"dosage"`
	Frequency    string  `json:"frequency"`
	ScheduleRule string  `json:"schedule_rule"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Instructions string  `json:"instructions"`
}

func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.StartDate != "" && !validDate(req.StartDate) {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD format")
		return
	}
	if req.EndDate != nil && !validDate(*req.EndDate) {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD format")
		return
	}
	if req.ScheduleRule != "" {
		if _, err := recurrence.Parse(req.ScheduleRule); err != nil {
			writeError(w, http.StatusBadRequest, "invalid schedule_rule: "+err.Error())
			return
		}
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

	med, err := h.medications.Create(model.Medication{
		ChildID:      req.ChildID,
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		ScheduleRule: req.ScheduleRule,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Instructions: req.Instructions,
		IsActive:     true,
	})
	if err != nil {
		h.logger.Error("create medication", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create medication")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("medication", "created", med.ID, nil))
	writeJSON(w, http.StatusCreated, med)
}

// List returns a child's medications with their computed dose status.
func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	meds, err := h.medications.ListByChild(childID, familyID, activeOnly)
	if err != nil {
		h.logger.Error("list medications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list medications")
		return
	}

	now := time.Now()
	out := make([]medication.WithStatus, 0, len(meds))
	for _, med := range meds {
		lastDose, err := h.medications.LastDoseAt(med.ID)
		if err != nil {
			h.logger.Error("last dose lookup", "medication_id", med.ID, "error", err)
		}
		status, dueAt := medication.ComputeStatus(med, lastDose, now)
		out = append(out, medication.WithStatus{
			Medication: med,
			Status:     status,
			DueAt:      dueAt,
			LastDose:   lastDose,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MedicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	med, err := h.medications.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if med == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	lastDose, err := h.medications.LastDoseAt(id)
	if err != nil {
		h.logger.Error("last dose lookup", "medication_id", id, "error", err)
	}
	status, dueAt := medication.ComputeStatus(*med, lastDose, time.Now())
	writeJSON(w, http.StatusOK, medication.WithStatus{
		Medication: *med,
		Status:     status,
		DueAt:      dueAt,
		LastDose:   lastDose,
	})
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *MedicationHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.medications.SetActive(id, familyID, req.IsActive); err != nil {
		h.logger.Error("set medication active", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update medication")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("medication", "updated", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.medications.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	if err := h.medications.Delete(id, familyID); err != nil {
		h.logger.Error("delete medication", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete medication")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("medication", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type doseRequest struct {
	Dosage  string     `json:"dosage"`
	GivenAt *time.Time `json:"given_at"`
	Notes   string     `json:"notes"`
}

// AddDose records a given dose. The dose inherits the medication's dosage
// when the request leaves it blank, and the timestamp defaults to now.
func (h *MedicationHandler) AddDose(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	med, err := h.medications.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if med == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	var req doseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	dosage := strings.TrimSpace(req.Dosage)
	if dosage == "" {
		dosage = med.Dosage
	}
	givenAt := time.Now()
	if req.GivenAt != nil {
		givenAt = *req.GivenAt
	}

	dose, err := h.medications.AddDose(id, dosage, givenAt, &userID, req.Notes)
	if err != nil {
		h.logger.Error("add medication dose", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record dose")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("medication_dose", "created", dose.ID, map[string]any{"medication_id": id}))
	writeJSON(w, http.StatusCreated, dose)
}

func (h *MedicationHandler) ListDoses(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	med, err := h.medications.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if med == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	doses, err := h.medications.ListDoses(id, queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("list medication doses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list doses")
		return
	}
	if doses == nil {
		doses = []model.MedicationDose{}
	}
	writeJSON(w, http.StatusOK, doses)
}
