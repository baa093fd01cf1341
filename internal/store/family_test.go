package store

import (
	"testing"

	"github.com/minikapp/minik/internal/database"
)

func setupFamilyTestDB(t *testing.T) (*FamilyStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewFamilyStore(db), NewUserStore(db)
}

func TestFamilyMembership(t *testing.T) {
	fs, us := setupFamilyTestDB(t)

	family, err := fs.Create("Larsen")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	bob, _ := us.Create("bob@example.com", "Bob", "hash")

	if _, err := fs.AddMember(family.ID, alice.ID, "parent"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := fs.AddMember(family.ID, bob.ID, "caregiver"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	member, err := fs.GetMember(family.ID, bob.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if member == nil || member.Role != "caregiver" {
		t.Errorf("member = %+v, want caregiver role", member)
	}

	ids, err := fs.ListMemberUserIDs(family.ID)
	if err != nil {
		t.Fatalf("list member ids: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("got %d members, want 2", len(ids))
	}
}

func TestFamilyIDForUser(t *testing.T) {
	fs, us := setupFamilyTestDB(t)

	user, _ := us.Create("solo@example.com", "Solo", "hash")

	// No membership yet.
	id, err := fs.FamilyIDForUser(user.ID)
	if err != nil {
		t.Fatalf("family id for user: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0", id)
	}

	family, _ := fs.Create("Solo family")
	fs.AddMember(family.ID, user.ID, "parent")

	id, err = fs.FamilyIDForUser(user.ID)
	if err != nil {
		t.Fatalf("family id for user: %v", err)
	}
	if id != family.ID {
		t.Errorf("id = %d, want %d", id, family.ID)
	}
}
