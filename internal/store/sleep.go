package store

import (
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type SleepStore struct {
	db *sql.DB
}

func NewSleepStore(db *sql.DB) *SleepStore {
	return &SleepStore{db: db}
}

const sleepCols = `s.id, s.child_id, s.sleep_date, s.bedtime, s.wake_time, s.night_wakings, s.sleep_quality, s.quality_notes, s.recorded_by, s.created_at`

func scanSleep(scanner interface{ Scan(...any) error }) (*model.SleepRecord, error) {
	var r model.SleepRecord
	var bedtime, wakeTime sql.NullString
	var recordedBy sql.NullInt64

	err := scanner.Scan(&r.ID, &r.ChildID, &r.SleepDate, &bedtime, &wakeTime, &r.NightWakings, &r.SleepQuality, &r.QualityNotes, &recordedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	if bedtime.Valid {
		r.Bedtime = &bedtime.String
	}
	if wakeTime.Valid {
		r.WakeTime = &wakeTime.String
	}
	if recordedBy.Valid {
		r.RecordedBy = &recordedBy.Int64
	}
	return &r, nil
}

func (s *SleepStore) Create(r model.SleepRecord) (*model.SleepRecord, error) {
	var bedtime, wakeTime sql.NullString
	if r.Bedtime != nil {
		bedtime = sql.NullString{String: *r.Bedtime, Valid: true}
	}
	if r.WakeTime != nil {
		wakeTime = sql.NullString{String: *r.WakeTime, Valid: true}
	}
	var recordedBy sql.NullInt64
	if r.RecordedBy != nil {
		recordedBy = sql.NullInt64{Int64: *r.RecordedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO sleep_records (child_id, sleep_date, bedtime, wake_time, night_wakings, sleep_quality, quality_notes, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ChildID, r.SleepDate, bedtime, wakeTime, r.NightWakings, r.SleepQuality, r.QualityNotes, recordedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sleep record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+sleepCols+` FROM sleep_records s WHERE s.id = ?`, id)
	created, err := scanSleep(row)
	if err != nil {
		return nil, fmt.Errorf("get sleep record: %w", err)
	}
	return created, nil
}

func (s *SleepStore) ListByChild(childID, familyID int64, startDate, endDate string) ([]model.SleepRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+sleepCols+` FROM sleep_records s
		 JOIN children c ON s.child_id = c.id
		 WHERE s.child_id = ? AND c.family_id = ? AND s.sleep_date BETWEEN ? AND ?
		 ORDER BY s.sleep_date DESC`,
		childID, familyID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list sleep records: %w", err)
	}
	defer rows.Close()

	var records []model.SleepRecord
	for rows.Next() {
		r, err := scanSleep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sleep record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func (s *SleepStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM sleep_records
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete sleep record: %w", err)
	}
	return nil
}
