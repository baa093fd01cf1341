package store

import (
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type SeizureStore struct {
	db *sql.DB
}

func NewSeizureStore(db *sql.DB) *SeizureStore {
	return &SeizureStore{db: db}
}

const seizureCols = `s.id, s.child_id, s.started_at, s.duration_minutes, s.seizure_type, s.observations, s.post_seizure_state, s.emergency_action, s.notes, s.recorded_by, s.created_at`

func scanSeizure(scanner interface{ Scan(...any) error }) (*model.Seizure, error) {
	var sz model.Seizure
	var duration sql.NullInt64
	var recordedBy sql.NullInt64
	var emergencyInt int

	err := scanner.Scan(&sz.ID, &sz.ChildID, &sz.StartedAt, &duration, &sz.SeizureType, &sz.Observations, &sz.PostSeizureState, &emergencyInt, &sz.Notes, &recordedBy, &sz.CreatedAt)
	if err != nil {
		return nil, err
	}

	if duration.Valid {
		d := int(duration.Int64)
		sz.DurationMinutes = &d
	}
	if recordedBy.Valid {
		sz.RecordedBy = &recordedBy.Int64
	}
	sz.EmergencyAction = emergencyInt != 0
	return &sz, nil
}

func (s *SeizureStore) Create(sz model.Seizure) (*model.Seizure, error) {
	var duration sql.NullInt64
	if sz.DurationMinutes != nil {
		duration = sql.NullInt64{Int64: int64(*sz.DurationMinutes), Valid: true}
	}
	var recordedBy sql.NullInt64
	if sz.RecordedBy != nil {
		recordedBy = sql.NullInt64{Int64: *sz.RecordedBy, Valid: true}
	}
	var emergencyInt int
	if sz.EmergencyAction {
		emergencyInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO seizures (child_id, started_at, duration_minutes, seizure_type, observations, post_seizure_state, emergency_action, notes, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sz.ChildID, sz.StartedAt.UTC(), duration, sz.SeizureType, sz.Observations, sz.PostSeizureState, emergencyInt, sz.Notes, recordedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert seizure: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+seizureCols+` FROM seizures s WHERE s.id = ?`, id)
	created, err := scanSeizure(row)
	if err != nil {
		return nil, fmt.Errorf("get seizure: %w", err)
	}
	return created, nil
}

func (s *SeizureStore) GetByID(id, familyID int64) (*model.Seizure, error) {
	row := s.db.QueryRow(
		`SELECT `+seizureCols+` FROM seizures s
		 JOIN children c ON s.child_id = c.id
		 WHERE s.id = ? AND c.family_id = ?`,
		id, familyID,
	)
	sz, err := scanSeizure(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get seizure: %w", err)
	}
	return sz, nil
}

func (s *SeizureStore) ListByChild(childID, familyID int64, limit int) ([]model.Seizure, error) {
	rows, err := s.db.Query(
		`SELECT `+seizureCols+` FROM seizures s
		 JOIN children c ON s.child_id = c.id
		 WHERE s.child_id = ? AND c.family_id = ?
		 ORDER BY s.started_at DESC LIMIT ?`,
		childID, familyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list seizures: %w", err)
	}
	defer rows.Close()

	var seizures []model.Seizure
	for rows.Next() {
		sz, err := scanSeizure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seizure: %w", err)
		}
		seizures = append(seizures, *sz)
	}
	return seizures, rows.Err()
}

func (s *SeizureStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM seizures
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete seizure: %w", err)
	}
	return nil
}
