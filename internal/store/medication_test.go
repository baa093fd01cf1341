package store

import (
	"testing"
	"time"

	"github.com/minikapp/minik/internal/database"
	"github.com/minikapp/minik/internal/model"
)

func setupMedicationTestDB(t *testing.T) (*MedicationStore, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fs := NewFamilyStore(db)
	cs := NewChildStore(db)
	family, err := fs.Create("Test")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	child, err := cs.Create(family.ID, "Emil", "2017-11-20", "male", "", "epilepsy")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return NewMedicationStore(db), child.ID, family.ID
}

func TestMedicationCRUD(t *testing.T) {
	ms, childID, familyID := setupMedicationTestDB(t)

	med, err := ms.Create(model.Medication{
		ChildID:      childID,
		Name:         "Levetiracetam",
		Dosage:       "250mg",
		Frequency:    "twice daily",
		ScheduleRule: "FREQ=DAILY",
		StartDate:    "2026-01-01",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create medication: %v", err)
	}
	if med.Name != "Levetiracetam" {
		t.Errorf("name = %q", med.Name)
	}
	if !med.IsActive {
		t.Error("expected active")
	}
	if med.EndDate != nil {
		t.Errorf("end_date = %v, want nil", med.EndDate)
	}

	got, err := ms.GetByID(med.ID, familyID)
	if err != nil {
		t.Fatalf("get medication: %v", err)
	}
	if got == nil || got.Dosage != "250mg" {
		t.Errorf("got = %+v", got)
	}

	// Cross-family access is denied.
	other, err := ms.GetByID(med.ID, familyID+1)
	if err != nil {
		t.Fatalf("cross-family get: %v", err)
	}
	if other != nil {
		t.Error("cross-family get should return nil")
	}

	if err := ms.SetActive(med.ID, familyID, false); err != nil {
		t.Fatalf("set inactive: %v", err)
	}
	active, err := ms.ListByChild(childID, familyID, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("got %d active medications, want 0", len(active))
	}
	all, _ := ms.ListByChild(childID, familyID, false)
	if len(all) != 1 {
		t.Errorf("got %d medications, want 1", len(all))
	}
}

func TestMedicationDoses(t *testing.T) {
	ms, childID, _ := setupMedicationTestDB(t)

	med, err := ms.Create(model.Medication{
		ChildID:   childID,
		Name:      "Vitamin D",
		Dosage:    "1 drop",
		Frequency: "daily",
		StartDate: "2026-01-01",
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create medication: %v", err)
	}

	last, err := ms.LastDoseAt(med.ID)
	if err != nil {
		t.Fatalf("last dose: %v", err)
	}
	if last != nil {
		t.Errorf("last dose = %v, want nil", last)
	}

	first := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	second := time.Date(2026, 8, 30, 8, 5, 0, 0, time.UTC)
	if _, err := ms.AddDose(med.ID, "1 drop", first, nil, ""); err != nil {
		t.Fatalf("add dose: %v", err)
	}
	if _, err := ms.AddDose(med.ID, "1 drop", second, nil, "late"); err != nil {
		t.Fatalf("add dose: %v", err)
	}

	doses, err := ms.ListDoses(med.ID, 10)
	if err != nil {
		t.Fatalf("list doses: %v", err)
	}
	if len(doses) != 2 {
		t.Fatalf("got %d doses, want 2", len(doses))
	}
	if !doses[0].GivenAt.After(doses[1].GivenAt) {
		t.Error("doses should be newest first")
	}

	last, err = ms.LastDoseAt(med.ID)
	if err != nil {
		t.Fatalf("last dose: %v", err)
	}
	if last == nil || !last.Equal(second) {
		t.Errorf("last dose = %v, want %v", last, second)
	}
}
