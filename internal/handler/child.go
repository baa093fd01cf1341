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

type ChildHandler struct {
	children *store.ChildStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewChildHandler(cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{children: cs, hub: hub, logger: logger}
}

type childRequest struct {
	Name         string `json:"name"`
	BirthDate    string `json:"birth_date"`
	Gender       string `json:"gender"`
	BloodType    string `json:"blood_type"`
	MedicalNotes string `json:"medical_notes"`
}

func (h *ChildHandler) validate(r *http.Request, w http.ResponseWriter) (*childRequest, bool) {
	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return nil, false
	}
	if req.BirthDate != "" && !validDate(req.BirthDate) {
		writeError(w, http.StatusBadRequest, "birth_date must be YYYY-MM-DD format")
		return nil, false
	}
	return &req, true
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	req, ok := h.validate(r, w)
	if !ok {
		return
	}

	child, err := h.children.Create(familyID, req.Name, req.BirthDate, req.Gender, req.BloodType, req.MedicalNotes)
	if err != nil {
		h.logger.Error("create child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create child")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("child", "created", child.ID, nil))
	writeJSON(w, http.StatusCreated, child)
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	children, err := h.children.ListByFamily(familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list children")
		return
	}
	if children == nil {
		children = []model.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	child, err := h.children.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.children.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	req, ok := h.validate(r, w)
	if !ok {
		return
	}

	child, err := h.children.Update(id, familyID, req.Name, req.BirthDate, req.Gender, req.BloodType, req.MedicalNotes)
	if err != nil {
		h.logger.Error("update child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update child")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("child", "updated", id, nil))
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.children.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	if err := h.children.Delete(id, familyID); err != nil {
		h.logger.Error("delete child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete child")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("child", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
