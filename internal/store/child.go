package store

import (
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type ChildStore struct {
	db *sql.DB
}

func NewChildStore(db *sql.DB) *ChildStore {
	return &ChildStore{db: db}
}

func scanChild(scanner interface{ Scan(...any) error }) (*model.Child, error) {
	var c model.Child
	err := scanner.Scan(&c.ID, &c.FamilyID, &c.Name, &c.BirthDate, &c.Gender, &c.BloodType, &c.MedicalNotes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const childCols = `id, family_id, name, birth_date, gender, blood_type, medical_notes, created_at, updated_at`

func (s *ChildStore) Create(familyID int64, name, birthDate, gender, bloodType, medicalNotes string) (*model.Child, error) {
	result, err := s.db.Exec(
		`INSERT INTO children (family_id, name, birth_date, gender, blood_type, medical_notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		familyID, name, birthDate, gender, bloodType, medicalNotes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *ChildStore) GetByID(id, familyID int64) (*model.Child, error) {
	row := s.db.QueryRow(`SELECT `+childCols+` FROM children WHERE id = ? AND family_id = ?`, id, familyID)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

func (s *ChildStore) ListByFamily(familyID int64) ([]model.Child, error) {
	rows, err := s.db.Query(
		`SELECT `+childCols+` FROM children WHERE family_id = ? ORDER BY name ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

func (s *ChildStore) Update(id, familyID int64, name, birthDate, gender, bloodType, medicalNotes string) (*model.Child, error) {
	_, err := s.db.Exec(
		`UPDATE children
		 SET name = ?, birth_date = ?, gender = ?, blood_type = ?, medical_notes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		name, birthDate, gender, bloodType, medicalNotes, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update child: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *ChildStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM children WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	return nil
}
