package store

import (
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type NutritionStore struct {
	db *sql.DB
}

func NewNutritionStore(db *sql.DB) *NutritionStore {
	return &NutritionStore{db: db}
}

const nutritionCols = `n.id, n.child_id, n.food_name, n.amount, n.unit, n.meal_type, n.meal_time, n.allergic_reaction, n.reaction_notes, n.notes, n.recorded_by, n.created_at`

func scanNutrition(scanner interface{ Scan(...any) error }) (*model.NutritionRecord, error) {
	var n model.NutritionRecord
	var recordedBy sql.NullInt64
	var reactionInt int

	err := scanner.Scan(&n.ID, &n.ChildID, &n.FoodName, &n.Amount, &n.Unit, &n.MealType, &n.MealTime, &reactionInt, &n.ReactionNotes, &n.Notes, &recordedBy, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	if recordedBy.Valid {
		n.RecordedBy = &recordedBy.Int64
	}
	n.AllergicReaction = reactionInt != 0
	return &n, nil
}

func (s *NutritionStore) Create(n model.NutritionRecord) (*model.NutritionRecord, error) {
	var recordedBy sql.NullInt64
	if n.RecordedBy != nil {
		recordedBy = sql.NullInt64{Int64: *n.RecordedBy, Valid: true}
	}
	var reactionInt int
	if n.AllergicReaction {
		reactionInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO nutrition_records (child_id, food_name, amount, unit, meal_type, meal_time, allergic_reaction, reaction_notes, notes, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ChildID, n.FoodName, n.Amount, n.Unit, n.MealType, n.MealTime.UTC(), reactionInt, n.ReactionNotes, n.Notes, recordedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert nutrition record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+nutritionCols+` FROM nutrition_records n WHERE n.id = ?`, id)
	created, err := scanNutrition(row)
	if err != nil {
		return nil, fmt.Errorf("get nutrition record: %w", err)
	}
	return created, nil
}

func (s *NutritionStore) ListByChild(childID, familyID int64, limit int) ([]model.NutritionRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+nutritionCols+` FROM nutrition_records n
		 JOIN children c ON n.child_id = c.id
		 WHERE n.child_id = ? AND c.family_id = ?
		 ORDER BY n.meal_time DESC LIMIT ?`,
		childID, familyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list nutrition records: %w", err)
	}
	defer rows.Close()

	var records []model.NutritionRecord
	for rows.Next() {
		n, err := scanNutrition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nutrition record: %w", err)
		}
		records = append(records, *n)
	}
	return records, rows.Err()
}

func (s *NutritionStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM nutrition_records
		 WHERE id = ? AND child_id IN (SELECT id FROM children WHERE family_id = ?)`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete nutrition record: %w", err)
	}
	return nil
}
