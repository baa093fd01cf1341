package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/reminder"
	"github.com/minikapp/minik/internal/store"
)

// ReminderHandler exposes manual trigger endpoints for the notification
// categories the scheduler also drives. Dedup still applies: triggering a
// reminder the scheduler already sent is a no-op.
type ReminderHandler struct {
	dispatcher  *reminder.Dispatcher
	events      *store.EventStore
	children    *store.ChildStore
	medications *store.MedicationStore
	logger      *slog.Logger
}

func NewReminderHandler(
	d *reminder.Dispatcher,
	es *store.EventStore,
	cs *store.ChildStore,
	ms *store.MedicationStore,
	logger *slog.Logger,
) *ReminderHandler {
	return &ReminderHandler{dispatcher: d, events: es, children: cs, medications: ms, logger: logger}
}

// SeizureNudge fires today's seizure-log prompt for the whole family.
func (h *ReminderHandler) SeizureNudge(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	title, body := reminder.SeizureNudgeMessage()
	today := time.Now().Format("2006-01-02")
	refID := reminder.DailyRefID("seizure", today)
	h.dispatcher.Dispatch(familyID, model.CategorySeizureReminder, refID, 0, title, body, "seizure-reminder")

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

type medicationDueRequest struct {
	MedicationID int64 `json:"medication_id"`
}

// MedicationDue fires a dose-due notification for one medication.
func (h *ReminderHandler) MedicationDue(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req medicationDueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	med, err := h.medications.GetByID(req.MedicationID, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if med == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	child, err := h.children.GetByID(med.ChildID, familyID)
	if err != nil || child == nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}

	title, body := reminder.MedicationDueMessage(child.Name, med.Name)
	refID := fmt.Sprintf("medication-%d-%s", med.ID, time.Now().Format("2006-01-02T15:04"))
	tag := fmt.Sprintf("medication-%d", med.ID)
	h.dispatcher.Dispatch(familyID, model.CategoryMedicationDue, refID, 0, title, body, tag)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

type eventDueRequest struct {
	EventID int64 `json:"event_id"`
}

// EventDue fires the reminder for one calendar event immediately,
// regardless of its lead-time setting.
func (h *ReminderHandler) EventDue(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req eventDueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	event, err := h.events.GetByID(req.EventID, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if event.IsCompleted {
		writeError(w, http.StatusConflict, "event is already completed")
		return
	}

	child, err := h.children.GetByID(event.ChildID, familyID)
	if err != nil || child == nil {
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}

	title, body := reminder.EventMessage(*event, child.Name)
	category := reminder.CategoryFor(event.EventType)
	h.dispatcher.Dispatch(familyID, category, reminder.EventRefID(event.ID), 0, title, body, reminder.EventTag(event.ID))

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}
