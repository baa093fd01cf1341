package model

import "time"

type NutritionRecord struct {
	ID               int64     `json:"id"`
	ChildID          int64     `json:"child_id"`
	FoodName         string    `json:"food_name"`
	Amount           string    `json:"amount"`
	Unit             string    `json:"unit"`
	MealType         string    `json:"meal_type"`
	MealTime         time.Time `json:"meal_time"`
	AllergicReaction bool      `json:"allergic_reaction"`
	ReactionNotes    string    `json:"reaction_notes"`
	Notes            string    `json:"notes"`
	RecordedBy       *int64    `json:"recorded_by"`
	CreatedAt        time.Time `json:"created_at"`
}
