package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventCols = `e.id, e.child_id, e.title, e.description, e.event_date, e.event_time, e.event_type, e.color,
	 e.is_recurring, e.recurrence_rule, e.reminder_minutes, e.is_completed, e.notes, e.created_at, e.updated_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	var eventTime sql.NullString
	var recurringInt, completedInt int

	err := scanner.Scan(&e.ID, &e.ChildID, &e.Title, &e.Description, &e.EventDate, &eventTime, &e.EventType, &e.Color,
		&recurringInt, &e.RecurrenceRule, &e.ReminderMinutes, &completedInt, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if eventTime.Valid {
		e.EventTime = &eventTime.String
	}
	e.IsRecurring = recurringInt != 0
	e.IsCompleted = completedInt != 0
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Create(e model.CalendarEvent) (*model.CalendarEvent, error) {
	var recurringInt, completedInt int
	if e.IsRecurring {
		recurringInt = 1
	}
	if e.IsCompleted {
		completedInt = 1
	}

	var eventTime sql.NullString
	if e.EventTime != nil {
		eventTime = sql.NullString{String: *e.EventTime, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO calendar_events
		 (child_id, title, description, event_date, event_time, event_type, color, is_recurring, recurrence_rule, reminder_minutes, is_completed, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ChildID, e.Title, e.Description, e.EventDate, eventTime, e.EventType, e.Color,
		recurringInt, e.RecurrenceRule, e.ReminderMinutes, completedInt, e.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getByID(id)
}

func (s *EventStore) getByID(id int64) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM calendar_events e WHERE e.id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar event: %w", err)
	}
	return e, nil
}

// GetByID returns an event only when its child belongs to the given family.
func (s *EventStore) GetByID(id, familyID int64) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(
		`SELECT `+eventCols+` FROM calendar_events e
		 JOIN children c ON e.child_id = c.id
		 WHERE e.id = ? AND c.family_id = ?`,
		id, familyID,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar event: %w", err)
	}
	return e, nil
}

// ListByFamily returns all events for a family whose date lies in
// [startDate, endDate], ordered by date then time.
func (s *EventStore) ListByFamily(familyID int64, startDate, endDate string) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM calendar_events e
		 JOIN children c ON e.child_id = c.id
		 WHERE c.family_id = ? AND e.event_date >= ? AND e.event_date <= ?
		 ORDER BY e.event_date ASC, e.event_time ASC`,
		familyID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByChild returns a child's events in [startDate, endDate].
func (s *EventStore) ListByChild(childID, familyID int64, startDate, endDate string) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM calendar_events e
		 JOIN children c ON e.child_id = c.id
		 WHERE e.child_id = ? AND c.family_id = ? AND e.event_date >= ? AND e.event_date <= ?
		 ORDER BY e.event_date ASC, e.event_time ASC`,
		childID, familyID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list calendar events by child: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListForReminder returns a child's incomplete events with the given
// reminder lead time whose date lies in [startDate, endDate]. This is the
// reminder-window query contract used by the polling scheduler; the
// context carries the scheduler's per-tick deadline.
func (s *EventStore) ListForReminder(ctx context.Context, childID int64, reminderMinutes int, startDate, endDate string) ([]model.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventCols+` FROM calendar_events e
		 WHERE e.child_id = ? AND e.reminder_minutes = ? AND e.is_completed = 0
		   AND e.event_date >= ? AND e.event_date <= ?
		 ORDER BY e.event_date ASC, e.event_time ASC`,
		childID, reminderMinutes, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminder events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *EventStore) Update(id, familyID int64, e model.CalendarEvent) (*model.CalendarEvent, error) {
	var recurringInt int
	if e.IsRecurring {
		recurringInt = 1
	}

	var eventTime sql.NullString
	if e.EventTime != nil {
		eventTime = sql.NullString{String: *e.EventTime, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE calendar_events
		 SET title = ?, description = ?, event_date = ?, event_time = ?, event_type = ?, color = ?,
		     is_recurring = ?, recurrence_rule = ?, reminder_minutes = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		e.Title, e.Description, e.EventDate, eventTime, e.EventType, e.Color,
		recurringInt, e.RecurrenceRule, e.ReminderMinutes, e.Notes, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update calendar event: %w", err)
	}
	return s.GetByID(id, familyID)
}

// SetCompleted toggles the completion flag. A completed event never fires
// another reminder.
func (s *EventStore) SetCompleted(id, familyID int64, completed bool) (*model.CalendarEvent, error) {
	var completedInt int
	if completed {
		completedInt = 1
	}
	_, err := s.db.Exec(
		`UPDATE calendar_events SET is_completed = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		completedInt, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("set calendar event completed: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *EventStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM calendar_events
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}
