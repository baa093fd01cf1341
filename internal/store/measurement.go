package store

import (
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type MeasurementStore struct {
	db *sql.DB
}

func NewMeasurementStore(db *sql.DB) *MeasurementStore {
	return &MeasurementStore{db: db}
}

const measurementCols = `m.id, m.child_id, m.measurement_date, m.weight_kg, m.height_cm, m.head_circumference_cm, m.temperature_celsius, m.notes, m.recorded_by, m.created_at`

func scanMeasurement(scanner interface{ Scan(...any) error }) (*model.Measurement, error) {
	var m model.Measurement
	var weight, height, head, temp sql.NullFloat64
	var recordedBy sql.NullInt64

	err := scanner.Scan(&m.ID, &m.ChildID, &m.MeasurementDate, &weight, &height, &head, &temp, &m.Notes, &recordedBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if weight.Valid {
		m.WeightKg = &weight.Float64
	}
	if height.Valid {
		m.HeightCm = &height.Float64
	}
	if head.Valid {
		m.HeadCircumferenceCm = &head.Float64
	}
	if temp.Valid {
		m.TemperatureCelsius = &temp.Float64
	}
	if recordedBy.Valid {
		m.RecordedBy = &recordedBy.Int64
	}
	return &m, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (s *MeasurementStore) Create(m model.Measurement) (*model.Measurement, error) {
	var recordedBy sql.NullInt64
	if m.RecordedBy != nil {
		recordedBy = sql.NullInt64{Int64: *m.RecordedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO measurements (child_id, measurement_date, weight_kg, height_cm, head_circumference_cm, temperature_celsius, notes, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ChildID, m.MeasurementDate, nullFloat(m.WeightKg), nullFloat(m.HeightCm), nullFloat(m.HeadCircumferenceCm), nullFloat(m.TemperatureCelsius), m.Notes, recordedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert measurement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+measurementCols+` FROM measurements m WHERE m.id = ?`, id)
	created, err := scanMeasurement(row)
	if err != nil {
		return nil, fmt.Errorf("get measurement: %w", err)
	}
	return created, nil
}

func (s *MeasurementStore) ListByChild(childID, familyID int64, limit int) ([]model.Measurement, error) {
	rows, err := s.db.Query(
		`SELECT `+measurementCols+` FROM measurements m
		 JOIN children c ON m.child_id = c.id
		 WHERE m.child_id = ? AND c.family_id = ?
		 ORDER BY m.measurement_date DESC LIMIT ?`,
		childID, familyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	var measurements []model.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		measurements = append(measurements, *m)
	}
	return measurements, rows.Err()
}

func (s *MeasurementStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM measurements
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	return nil
}
