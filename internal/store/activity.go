package store

import (
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

const activityCols = `a.id, a.child_id, a.activity_date, a.activity_time, a.activity_type, a.description, a.duration_minutes, a.completion_status, a.notes, a.recorded_by, a.created_at`

func scanActivity(scanner interface{ Scan(...any) error }) (*model.Activity, error) {
	var a model.Activity
	var activityTime sql.NullString
	var duration sql.NullInt64
	var recordedBy sql.NullInt64

	err := scanner.Scan(&a.ID, &a.ChildID, &a.ActivityDate, &activityTime, &a.ActivityType, &a.Description, &duration, &a.CompletionStatus, &a.Notes, &recordedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if activityTime.Valid {
		a.ActivityTime = &activityTime.String
	}
	if duration.Valid {
		d := int(duration.Int64)
		a.DurationMinutes = &d
	}
	if recordedBy.Valid {
		a.RecordedBy = &recordedBy.Int64
	}
	return &a, nil
}

func (s *ActivityStore) Create(a model.Activity) (*model.Activity, error) {
	var activityTime sql.NullString
	if a.ActivityTime != nil {
		activityTime = sql.NullString{String: *a.ActivityTime, Valid: true}
	}
	var duration sql.NullInt64
	if a.DurationMinutes != nil {
		duration = sql.NullInt64{Int64: int64(*a.DurationMinutes), Valid: true}
	}
	var recordedBy sql.NullInt64
	if a.RecordedBy != nil {
		recordedBy = sql.NullInt64{Int64: *a.RecordedBy, Valid: true}
	}
	if a.CompletionStatus == "" {
		a.CompletionStatus = "pending"
	}

	result, err := s.db.Exec(
		`INSERT INTO activities (child_id, activity_date, activity_time, activity_type, description, duration_minutes, completion_status, notes, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ChildID, a.ActivityDate, activityTime, a.ActivityType, a.Description, duration, a.CompletionStatus, a.Notes, recordedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+activityCols+` FROM activities a WHERE a.id = ?`, id)
	created, err := scanActivity(row)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return created, nil
}

func (s *ActivityStore) ListByChild(childID, familyID int64, startDate, endDate string) ([]model.Activity, error) {
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM activities a
		 JOIN children c ON a.child_id = c.id
		 WHERE a.child_id = ? AND c.family_id = ? AND a.activity_date BETWEEN ? AND ?
		 ORDER BY a.activity_date DESC, a.activity_time DESC`,
		childID, familyID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *ActivityStore) SetCompletionStatus(id, familyID int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE activities SET completion_status = ?
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		status, id, familyID,
	)
	if err != nil {
		return fmt.Errorf("set activity status: %w", err)
	}
	return nil
}

func (s *ActivityStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM activities
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}
