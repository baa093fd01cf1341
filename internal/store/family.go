package store

import (
	"database/sql"
	"fmt"

	"github.com/minikapp/minik/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const familyCols = `id, name, created_at, updated_at`

func (s *FamilyStore) Create(name string) (*model.Family, error) {
	result, err := s.db.Exec(`INSERT INTO families (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) Update(id int64, name string) (*model.Family, error) {
	_, err := s.db.Exec(`UPDATE families SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyStore) AddMember(familyID, userID int64, role string) (*model.FamilyMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO family_members (family_id, user_id, role) VALUES (?, ?, ?)`,
		familyID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add family member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var m model.FamilyMember
	err = s.db.QueryRow(
		`SELECT id, family_id, user_id, role, created_at FROM family_members WHERE id = ?`, id,
	).Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return &m, nil
}

func (s *FamilyStore) GetMember(familyID, userID int64) (*model.FamilyMember, error) {
	var m model.FamilyMember
	err := s.db.QueryRow(
		`SELECT id, family_id, user_id, role, created_at
		 FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	).Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return &m, nil
}

// FamilyIDForUser resolves the family a user belongs to. Returns 0 when the
// user has not joined a family yet.
func (s *FamilyStore) FamilyIDForUser(userID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT family_id FROM family_members WHERE user_id = ? ORDER BY created_at ASC LIMIT 1`,
		userID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("family id for user: %w", err)
	}
	return id, nil
}

// ListMemberUserIDs returns the user ids of every member of a family.
func (s *FamilyStore) ListMemberUserIDs(familyID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM family_members WHERE family_id = ? ORDER BY created_at ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list member user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFamilyIDs returns the ids of all families, oldest first. The reminder
// scheduler iterates these each tick.
func (s *FamilyStore) ListFamilyIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM families ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list family ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan family id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
