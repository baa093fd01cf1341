package medication

import (
	"testing"
	"time"

	"github.com/minikapp/minik/internal/model"
)

func med(rule string, active bool) model.Medication {
	return model.Medication{
		ID:           1,
		Name:         "Levetiracetam",
		ScheduleRule: rule,
		StartDate:    "2026-08-01",
		IsActive:     active,
		CreatedAt:    time.Date(2026, time.August, 1, 0, 0, 0, 0, time.Local),
	}
}

func TestComputeStatusInactive(t *testing.T) {
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.Local)

	status, _ := ComputeStatus(med("FREQ=DAILY", false), nil, now)
	if status != StatusInactive {
		t.Errorf("status = %q, want inactive", status)
	}

	ended := med("FREQ=DAILY", true)
	end := "2026-08-15"
	ended.EndDate = &end
	status, _ = ComputeStatus(ended, nil, now)
	if status != StatusInactive {
		t.Errorf("status past end date = %q, want inactive", status)
	}
}

func TestComputeStatusUnscheduled(t *testing.T) {
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.Local)
	m := med("", true)

	status, due := ComputeStatus(m, nil, now)
	if status != StatusDue {
		t.Errorf("status with no dose = %q, want due", status)
	}
	if due != nil {
		t.Errorf("due = %v, want nil for unscheduled", due)
	}

	today := now.Add(-3 * time.Hour)
	status, _ = ComputeStatus(m, &today, now)
	if status != StatusTaken {
		t.Errorf("status with dose today = %q, want taken", status)
	}

	yesterday := now.AddDate(0, 0, -1)
	status, _ = ComputeStatus(m, &yesterday, now)
	if status != StatusDue {
		t.Errorf("status with stale dose = %q, want due", status)
	}
}

func TestComputeStatusScheduled(t *testing.T) {
	m := med("FREQ=DAILY", true)
	slot := time.Date(2026, time.August, 30, 8, 0, 0, 0, time.Local)

	// Within an hour of the slot and untaken.
	status, due := ComputeStatus(m, nil, slot.Add(30*time.Minute))
	if status != StatusDue {
		t.Errorf("status = %q, want due", status)
	}
	if due == nil || !due.Equal(slot) {
		t.Errorf("due = %v, want %v", due, slot)
	}

	// More than an hour past the slot and untaken.
	status, _ = ComputeStatus(m, nil, slot.Add(2*time.Hour))
	if status != StatusOverdue {
		t.Errorf("status = %q, want overdue", status)
	}

	// Dose recorded after the slot.
	dose := slot.Add(10 * time.Minute)
	status, _ = ComputeStatus(m, &dose, slot.Add(2*time.Hour))
	if status != StatusTaken {
		t.Errorf("status = %q, want taken", status)
	}

	// Dose recorded before the slot does not cover it.
	stale := slot.Add(-20 * time.Hour)
	status, _ = ComputeStatus(m, &stale, slot.Add(2*time.Hour))
	if status != StatusOverdue {
		t.Errorf("status with stale dose = %q, want overdue", status)
	}
}

func TestComputeStatusBeforeFirstSlot(t *testing.T) {
	m := med("FREQ=DAILY", true)
	m.StartDate = "2026-09-15"

	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.Local)
	status, due := ComputeStatus(m, nil, now)
	if status != StatusNotDue {
		t.Errorf("status = %q, want not_due", status)
	}
	if due != nil {
		t.Errorf("due = %v, want nil", due)
	}
}

func TestNextDose(t *testing.T) {
	m := med("FREQ=DAILY", true)
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.Local)

	next := NextDose(m, now)
	want := time.Date(2026, time.August, 31, 8, 0, 0, 0, time.Local)
	if next == nil || !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	// End date cuts the schedule off.
	end := "2026-08-30"
	m.EndDate = &end
	if next := NextDose(m, now); next != nil {
		t.Errorf("next past end = %v, want nil", next)
	}

	if next := NextDose(med("", true), now); next != nil {
		t.Errorf("next without rule = %v, want nil", next)
	}
}
