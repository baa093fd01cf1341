package model

import "time"

type Child struct {
	ID           int64     `json:"id"`
	FamilyID     int64     `json:"family_id"`
	Name         string    `json:"name"`
	BirthDate    string    `json:"birth_date"`
	Gender       string    `json:"gender"`
	BloodType    string    `json:"blood_type"`
	MedicalNotes string    `json:"medical_notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
