package model

import "time"

// Measurement is one physical measurement entry. All value fields are
// optional so a temperature-only reading is a valid row.
type Measurement struct {
	ID                  int64     `json:"id"`
	ChildID             int64     `json:"child_id"`
	MeasurementDate     string    `json:"measurement_date"` // YYYY-MM-DD
	WeightKg            *float64  `json:"weight_kg"`
	HeightCm            *float64  `json:"height_cm"`
	HeadCircumferenceCm *float64  `json:"head_circumference_cm"`
	TemperatureCelsius  *float64  `json:"temperature_celsius"`
	Notes               string    `json:"notes"`
	RecordedBy          *int64    `json:"recorded_by"`
	CreatedAt           time.Time `json:"created_at"`
}
