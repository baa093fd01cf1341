// Package medication derives dose-due status from a medication's
// schedule rule and its recorded doses.
package medication

import (
	"log/slog"
	"time"

	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/recurrence"
)

type Status string

const (
	StatusTaken    Status = "taken"
	StatusDue      Status = "due"
	StatusOverdue  Status = "overdue"
	StatusNotDue   Status = "not_due"
	StatusInactive Status = "inactive"
)

// WithStatus pairs a medication with its derived dose status.
type WithStatus struct {
	model.Medication
	Status   Status     `json:"status"`
	DueAt    *time.Time `json:"due_at"`
	LastDose *time.Time `json:"last_dose"`
}

// ComputeStatus derives the dose status for a medication at the given
// instant. lastDose is the most recent recorded dose, nil when none.
//
// A medication with no schedule rule is tracked informally: it is due
// every day until a dose is recorded that day. With a rule, the most
// recent scheduled instant at or before now is the current dose slot;
// the slot is taken when a dose was recorded at or after it, overdue
// when the slot is more than an hour old and untaken.
func ComputeStatus(med model.Medication, lastDose *time.Time, now time.Time) (Status, *time.Time) {
	if !med.IsActive {
		return StatusInactive, nil
	}
	if ended(med, now) {
		return StatusInactive, nil
	}

	if med.ScheduleRule == "" {
		if lastDose != nil && sameDay(*lastDose, now) {
			return StatusTaken, nil
		}
		return StatusDue, nil
	}

	rule, err := recurrence.Parse(med.ScheduleRule)
	if err != nil {
		slog.Error("invalid medication schedule rule",
			"medication_id", med.ID, "rule", med.ScheduleRule, "error", err)
		if lastDose != nil && sameDay(*lastDose, now) {
			return StatusTaken, nil
		}
		return StatusDue, nil
	}

	start := scheduleStart(med)
	slots := recurrence.Dates(rule, start, start, now.Add(time.Nanosecond))
	if len(slots) == 0 {
		return StatusNotDue, nil
	}
	slot := slots[len(slots)-1]

	if lastDose != nil && !lastDose.Before(slot) {
		return StatusTaken, &slot
	}
	if now.Sub(slot) > time.Hour {
		return StatusOverdue, &slot
	}
	return StatusDue, &slot
}

// NextDose returns the next scheduled dose instant after now, or nil
// when the medication has no rule or the rule is exhausted.
func NextDose(med model.Medication, now time.Time) *time.Time {
	if med.ScheduleRule == "" {
		return nil
	}
	rule, err := recurrence.Parse(med.ScheduleRule)
	if err != nil {
		return nil
	}
	next, ok := recurrence.NextAfter(rule, scheduleStart(med), now)
	if !ok {
		return nil
	}
	if ended(med, next) {
		return nil
	}
	return &next
}

// scheduleStart anchors the rule at 08:00 on the start date. Bad dates
// fall back to the creation timestamp.
func scheduleStart(med model.Medication) time.Time {
	d, err := time.ParseInLocation("2006-01-02", med.StartDate, time.Local)
	if err != nil {
		return med.CreatedAt
	}
	return d.Add(8 * time.Hour)
}

func ended(med model.Medication, now time.Time) bool {
	if med.EndDate == nil {
		return false
	}
	end, err := time.ParseInLocation("2006-01-02", *med.EndDate, time.Local)
	if err != nil {
		return false
	}
	return now.After(end.AddDate(0, 0, 1))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
