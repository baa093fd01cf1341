package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/recurrence"
	"github.com/minikapp/minik/internal/store"
	"github.com/minikapp/minik/internal/websocket"
)

type CalendarEventHandler struct {
	events   *store.EventStore
	children *store.ChildStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewCalendarEventHandler(es *store.EventStore, cs *store.ChildStore, hub *websocket.Hub, logger *slog.Logger) *CalendarEventHandler {
	return &CalendarEventHandler{events: es, children: cs, hub: hub, logger: logger}
}

type eventRequest struct {
	ChildID         int64   `json:"child_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	EventDate       string  `json:"event_date"`
	EventTime       *string `json:"event_time"`
	EventType       string  `json:"event_type"`
	Color           string  `json:"color"`
	IsRecurring     bool    `json:"is_recurring"`
	RecurrenceRule  string  `json:"recurrence_rule"`
	ReminderMinutes int     `json:"reminder_minutes"`
	Notes           string  `json:"notes"`
}

func (h *CalendarEventHandler) parseAndValidate(r *http.Request, w http.ResponseWriter, familyID int64) (*model.CalendarEvent, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return nil, false
	}
	if !validDate(req.EventDate) {
		writeError(w, http.StatusBadRequest, "event_date must be YYYY-MM-DD format")
		return nil, false
	}
	if req.EventTime != nil && !validClockTime(*req.EventTime) {
		writeError(w, http.StatusBadRequest, "event_time must be HH:MM format")
		return nil, false
	}
	if req.EventType == "" {
		req.EventType = model.EventTypeOther
	}
	if !model.ValidEventType(req.EventType) {
		writeError(w, http.StatusBadRequest, "unknown event_type")
		return nil, false
	}
	if !model.ValidReminderMinutes(req.ReminderMinutes) {
		writeError(w, http.StatusBadRequest, "reminder_minutes must be 0, 5, 15, 30, 60, or 120")
		return nil, false
	}
	if req.IsRecurring {
		if _, err := recurrence.Parse(req.RecurrenceRule); err != nil {
			writeError(w, http.StatusBadRequest, "invalid recurrence_rule: "+err.Error())
			return nil, false
		}
	} else {
		req.RecurrenceRule = ""
	}
	if req.Color == "" {
		req.Color = model.EventTypeColors[req.EventType]
	}

	child, err := h.children.GetByID(req.ChildID, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check child")
		return nil, false
	}
	if child == nil {
		writeError(w, http.StatusBadRequest, "child not found")
		return nil, false
	}

	return &model.CalendarEvent{
		ChildID:         req.ChildID,
		Title:           req.Title,
		Description:     req.Description,
		EventDate:       req.EventDate,
		EventTime:       req.EventTime,
		EventType:       req.EventType,
		Color:           req.Color,
		IsRecurring:     req.IsRecurring,
		RecurrenceRule:  req.RecurrenceRule,
		ReminderMinutes: req.ReminderMinutes,
		Notes:           req.Notes,
	}, true
}

func (h *CalendarEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	e, ok := h.parseAndValidate(r, w, familyID)
	if !ok {
		return
	}

	event, err := h.events.Create(*e)
	if err != nil {
		h.logger.Error("create calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("calendar_event", "created", event.ID, nil))
	writeJSON(w, http.StatusCreated, event)
}

// List returns events in [start, end], family-wide or for one child when
// the child_id query parameter is present. Recurring events are expanded
// into concrete dated instances inside the range.
func (h *CalendarEventHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}
	if !validDate(startStr) || !validDate(endStr) {
		writeError(w, http.StatusBadRequest, "start and end must be YYYY-MM-DD format")
		return
	}

	var (
		events []model.CalendarEvent
		err    error
	)
	if childStr := r.URL.Query().Get("child_id"); childStr != "" {
		childID, perr := strconv.ParseInt(childStr, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid child_id")
			return
		}
		events, err = h.events.ListByChild(childID, familyID, startStr, endStr)
	} else {
		events, err = h.events.ListByFamily(familyID, startStr, endStr)
	}
	if err != nil {
		h.logger.Error("list calendar events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	events = expandRecurring(events, startStr, endStr)
	if events == nil {
		events = []model.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// expandRecurring replaces each recurring event with one instance per
// occurrence date inside [start, end]. Instances keep the source event's
// ID so completion and deletion still target the series.
func expandRecurring(events []model.CalendarEvent, start, end string) []model.CalendarEvent {
	rangeStart, err := parseFlexibleTime(start)
	if err != nil {
		return events
	}
	rangeEnd, err := parseFlexibleTime(end)
	if err != nil {
		return events
	}
	rangeEnd = rangeEnd.AddDate(0, 0, 1)

	out := make([]model.CalendarEvent, 0, len(events))
	for _, e := range events {
		if !e.IsRecurring || e.RecurrenceRule == "" {
			out = append(out, e)
			continue
		}
		rule, err := recurrence.Parse(e.RecurrenceRule)
		if err != nil {
			out = append(out, e)
			continue
		}
		seriesStart, err := parseFlexibleTime(e.EventDate)
		if err != nil {
			out = append(out, e)
			continue
		}
		for _, d := range recurrence.Dates(rule, seriesStart, rangeStart, rangeEnd) {
			inst := e
			inst.EventDate = d.Format("2006-01-02")
			out = append(out, inst)
		}
	}
	return out
}

func (h *CalendarEventHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	event, err := h.events.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.events.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	e, ok := h.parseAndValidate(r, w, familyID)
	if !ok {
		return
	}

	event, err := h.events.Update(id, familyID, *e)
	if err != nil {
		h.logger.Error("update calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("calendar_event", "updated", id, nil))
	writeJSON(w, http.StatusOK, event)
}

type completeRequest struct {
	IsCompleted bool `json:"is_completed"`
}

func (h *CalendarEventHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	event, err := h.events.SetCompleted(id, familyID, req.IsCompleted)
	if err != nil {
		h.logger.Error("complete calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("calendar_event", "updated", id, nil))
	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.events.GetByID(id, familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if err := h.events.Delete(id, familyID); err != nil {
		h.logger.Error("delete calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	h.hub.Broadcast(familyID, websocket.NewMessage("calendar_event", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
