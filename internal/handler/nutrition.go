package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
	"github.com/minikapp/minik/internal/websocket"
)

type NutritionHandler struct {
	nutrition *store.NutritionStore
	children  *store.ChildStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewNutritionHandler(ns *store.NutritionStore, cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *NutritionHandler {
	return &NutritionHandler{nutrition: ns, children: cs, hub: hub, logger: logger}
}

type nutritionRequest struct {
	ChildID          int64      `json:"child_id"`
	FoodName         string     `json:"food_name"`
	Amount           string     `json:"amount"`
	Unit             string     `json:"unit"`
	MealType         string     `json:"meal_type"`
	MealTime         *time.Time `json:"meal_time"`
	AllergicReaction bool       `json:"allergic_reaction"`
	ReactionNotes    string     `json:"reaction_notes"`
	Notes            string     `json:"notes"`
}

func (h *NutritionHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	userID := auth.UserID(r.Context())

	var req nutritionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.FoodName = strings.TrimSpace(req.FoodName)
	if req.FoodName == "" {
		writeError(w, http.StatusBadRequest, "food_name is required")
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

	mealTime := time.Now()
	if req.MealTime != nil {
		mealTime = *req.MealTime
	}

	rec, err := h.nutrition.Create(model.NutritionRecord{
		ChildID:          req.ChildID,
		FoodName:         req.FoodName,
		Amount:           req.Amount,
		Unit:             req.Unit,
		MealType:         req.MealType,
		MealTime:         mealTime,
		AllergicReaction: req.AllergicReaction,
		ReactionNotes:    req.ReactionNotes,
		Notes:            req.Notes,
		RecordedBy:       &userID,
	})
	if err != nil {
		h.logger.Error("create nutrition record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record meal")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("nutrition", "created", rec.ID, nil))
	writeJSON(w, http.StatusCreated, rec)
}

func (h *NutritionHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}

	records, err := h.nutrition.ListByChild(childID, familyID, queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("list nutrition records", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list meals")
		return
	}
	if records == nil {
		records = []model.NutritionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *NutritionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.nutrition.Delete(id, familyID); err != nil {
		h.logger.Error("delete nutrition record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete meal")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("nutrition", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
