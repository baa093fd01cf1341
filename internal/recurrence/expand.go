package recurrence

import (
	"sort"
	"time"
)

// Scan cap so a malformed rule can never spin forever.
const maxScan = 10000

// Dates returns the occurrence instants of a rule that fall within
// [rangeStart, rangeEnd). The start instant carries the clock time every
// occurrence keeps, so a daily 08:00 medication rule yields 08:00 instants.
func Dates(rule Rule, start, rangeStart, rangeEnd time.Time) []time.Time {
	var out []time.Time
	each(rule, start, func(t time.Time) bool {
		if !t.Before(rangeEnd) {
			return false
		}
		if !t.Before(rangeStart) {
			out = append(out, t)
		}
		return true
	})
	return out
}

// NextAfter returns the first occurrence strictly after the given instant.
// The second return is false when the rule ends before then.
func NextAfter(rule Rule, start, after time.Time) (time.Time, bool) {
	var next time.Time
	var found bool
	each(rule, start, func(t time.Time) bool {
		if t.After(after) {
			next = t
			found = true
			return false
		}
		return true
	})
	return next, found
}

// OccursOn reports whether the rule has an occurrence on the calendar day
// containing the given instant.
func OccursOn(rule Rule, start, day time.Time) bool {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	return len(Dates(rule, start, dayStart, dayEnd)) > 0
}

// each calls fn for every occurrence in order until fn returns false or the
// rule is exhausted by COUNT, UNTIL, or the scan cap.
func each(rule Rule, start time.Time, fn func(time.Time) bool) {
	emitted := 0
	emit := func(t time.Time) bool {
		if rule.Until != nil && t.After(*rule.Until) {
			return false
		}
		emitted++
		if rule.Count > 0 && emitted > rule.Count {
			return false
		}
		return fn(t)
	}

	switch rule.Freq {
	case Daily:
		t := start
		for i := 0; i < maxScan; i++ {
			if !emit(t) {
				return
			}
			t = t.AddDate(0, 0, rule.Interval)
		}

	case Weekly:
		if len(rule.ByDay) == 0 {
			t := start
			for i := 0; i < maxScan; i++ {
				if !emit(t) {
					return
				}
				t = t.AddDate(0, 0, 7*rule.Interval)
			}
			return
		}
		days := append([]time.Weekday(nil), rule.ByDay...)
		sort.Slice(days, func(i, j int) bool {
			return mondayIndex(days[i]) < mondayIndex(days[j])
		})
		week := weekStart(start)
		for i := 0; i < maxScan; i++ {
			for _, wd := range days {
				t := time.Date(
					week.Year(), week.Month(), week.Day()+mondayIndex(wd),
					start.Hour(), start.Minute(), start.Second(), 0, start.Location(),
				)
				if t.Before(start) {
					continue
				}
				if !emit(t) {
					return
				}
			}
			week = weekStart(week.AddDate(0, 0, 7*rule.Interval))
		}

	case Monthly:
		day := rule.ByMonthDay
		if day == 0 {
			day = start.Day()
		}
		t := start
		for i := 0; i < maxScan; i++ {
			year, month, _ := t.Date()
			// Skip months without this day (e.g. the 31st).
			if day <= daysInMonth(year, month) {
				occ := time.Date(year, month, day, start.Hour(), start.Minute(), start.Second(), 0, start.Location())
				if !occ.Before(start) {
					if !emit(occ) {
						return
					}
				}
			}
			t = t.AddDate(0, rule.Interval, 0)
		}

	case Yearly:
		t := start
		for i := 0; i < maxScan; i++ {
			if !emit(t) {
				return
			}
			t = t.AddDate(rule.Interval, 0, 0)
			// A Feb 29 start drifts to Mar 1 on non-leap years; skip those.
			if start.Month() == time.February && start.Day() == 29 {
				for t.Day() != 29 {
					t = t.AddDate(rule.Interval, 0, 0)
				}
			}
		}
	}
}

// mondayIndex maps a weekday to its offset from Monday.
func mondayIndex(wd time.Weekday) int {
	idx := int(wd) - int(time.Monday)
	if idx < 0 {
		idx += 7
	}
	return idx
}

func weekStart(t time.Time) time.Time {
	monday := t.AddDate(0, 0, -mondayIndex(t.Weekday()))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
