package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/minikapp/minik/internal/model"
)

type MedicationStore struct {
	db *sql.DB
}

func NewMedicationStore(db *sql.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

const medicationCols = `m.id, m.child_id, m.name, m.dosage, m.frequency, m.schedule_rule, m.start_date, m.end_date, m.instructions, m.is_active, m.created_at`

func scanMedication(scanner interface{ Scan(...any) error }) (*model.Medication, error) {
	var m model.Medication
	var endDate sql.NullString
	var activeInt int

	err := scanner.Scan(&m.ID, &m.ChildID, &m.Name, &m.Dosage, &m.Frequency, &m.ScheduleRule, &m.StartDate, &endDate, &m.Instructions, &activeInt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		m.EndDate = &endDate.String
	}
	m.IsActive = activeInt != 0
	return &m, nil
}

func (s *MedicationStore) Create(m model.Medication) (*model.Medication, error) {
	var endDate sql.NullString
	if m.EndDate != nil {
		endDate = sql.NullString{String: *m.EndDate, Valid: true}
	}
	var activeInt int
	if m.IsActive {
		activeInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO medications (child_id, name, dosage, frequency, schedule_rule, start_date, end_date, instructions, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ChildID, m.Name, m.Dosage, m.Frequency, m.ScheduleRule, m.StartDate, endDate, m.Instructions, activeInt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+medicationCols+` FROM medications m WHERE m.id = ?`, id)
	med, err := scanMedication(row)
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return med, nil
}

func (s *MedicationStore) GetByID(id, familyID int64) (*model.Medication, error) {
	row := s.db.QueryRow(
		`SELECT `+medicationCols+` FROM medications m
		 JOIN children c ON m.child_id = c.id
		 WHERE m.id = ? AND c.family_id = ?`,
		id, familyID,
	)
	m, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

func (s *MedicationStore) ListByChild(childID, familyID int64, activeOnly bool) ([]model.Medication, error) {
	query := `SELECT ` + medicationCols + ` FROM medications m
		 JOIN children c ON m.child_id = c.id
		 WHERE m.child_id = ? AND c.family_id = ?`
	if activeOnly {
		query += ` AND m.is_active = 1`
	}
	query += ` ORDER BY m.name ASC`

	rows, err := s.db.Query(query, childID, familyID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var meds []model.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		meds = append(meds, *m)
	}
	return meds, rows.Err()
}

func (s *MedicationStore) SetActive(id, familyID int64, active bool) error {
	var activeInt int
	if active {
		activeInt = 1
	}
	_, err := s.db.Exec(
		`UPDATE medications SET is_active = ?
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		activeInt, id, familyID,
	)
	if err != nil {
		return fmt.Errorf("set medication active: %w", err)
	}
	return nil
}

func (s *MedicationStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM medications
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	return nil
}

func (s *MedicationStore) AddDose(medicationID int64, dosage string, givenAt time.Time, givenBy *int64, notes string) (*model.MedicationDose, error) {
	var givenByVal sql.NullInt64
	if givenBy != nil {
		givenByVal = sql.NullInt64{Int64: *givenBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO medication_doses (medication_id, dosage, given_at, given_by, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		medicationID, dosage, givenAt.UTC(), givenByVal, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication dose: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var d model.MedicationDose
	var givenByOut sql.NullInt64
	err = s.db.QueryRow(
		`SELECT id, medication_id, dosage, given_at, given_by, notes, created_at
		 FROM medication_doses WHERE id = ?`, id,
	).Scan(&d.ID, &d.MedicationID, &d.Dosage, &d.GivenAt, &givenByOut, &d.Notes, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get medication dose: %w", err)
	}
	if givenByOut.Valid {
		d.GivenBy = &givenByOut.Int64
	}
	return &d, nil
}

func (s *MedicationStore) ListDoses(medicationID int64, limit int) ([]model.MedicationDose, error) {
	rows, err := s.db.Query(
		`SELECT id, medication_id, dosage, given_at, given_by, notes, created_at
		 FROM medication_doses WHERE medication_id = ?
		 ORDER BY given_at DESC LIMIT ?`,
		medicationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list medication doses: %w", err)
	}
	defer rows.Close()

	var doses []model.MedicationDose
	for rows.Next() {
		var d model.MedicationDose
		var givenBy sql.NullInt64
		if err := rows.Scan(&d.ID, &d.MedicationID, &d.Dosage, &d.GivenAt, &givenBy, &d.Notes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan medication dose: %w", err)
		}
		if givenBy.Valid {
			d.GivenBy = &givenBy.Int64
		}
		doses = append(doses, d)
	}
	return doses, rows.Err()
}

// LastDoseAt returns the time of the most recent dose, or nil when none
// has been recorded.
func (s *MedicationStore) LastDoseAt(medicationID int64) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRow(
		`SELECT given_at FROM medication_doses WHERE medication_id = ? ORDER BY given_at DESC LIMIT 1`,
		medicationID,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last dose: %w", err)
	}
	return &t, nil
}
