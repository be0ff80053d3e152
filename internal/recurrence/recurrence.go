// Package recurrence decides whether a reminder is due at a point in time.
// It is pure: no store access, no side effects.
package recurrence

import (
	"strings"
	"time"

	"MedTracker/internal/domain"
)

// ToleranceMinutes is how far the wall clock may drift from the configured
// reminder time and still count as due. The scan loop runs every minute, so
// a one-minute tolerance guarantees each occurrence is seen at least once.
const ToleranceMinutes = 1

// IsDue reports whether the reminder has a due occurrence at now. A reminder
// without a configured time is never due, and dates outside the reminder's
// [start, end] range never match regardless of rule.
func IsDue(r domain.Reminder, now time.Time) bool {
	if r.ReminderTime == nil {
		return false
	}
	if !withinDateRange(r, now) {
		return false
	}
	if !timeMatches(*r.ReminderTime, now) {
		return false
	}

	switch r.FrequencyType {
	case domain.FrequencyDaily:
		return true
	case domain.FrequencyWeekly:
		return weekdayListed(r.DaysOfWeek, now)
	case domain.FrequencyMonthly:
		return r.FrequencyValue != 0 && now.Day() == r.FrequencyValue
	case domain.FrequencyCustom:
		return customIntervalMatches(r, now)
	}
	return false
}

func withinDateRange(r domain.Reminder, now time.Time) bool {
	day := dateOf(now)
	if r.StartDate != nil && day.Before(dateOf(*r.StartDate)) {
		return false
	}
	if r.EndDate != nil && day.After(dateOf(*r.EndDate)) {
		return false
	}
	return true
}

func timeMatches(at domain.TimeOfDay, now time.Time) bool {
	nowMinutes := now.Hour()*60 + now.Minute()
	diff := at.Minutes() - nowMinutes
	if diff < 0 {
		diff = -diff
	}
	return diff <= ToleranceMinutes
}

func weekdayListed(list string, now time.Time) bool {
	if list == "" {
		return false
	}
	current := strings.ToLower(now.Weekday().String())
	for _, day := range strings.Split(list, ",") {
		if strings.ToLower(strings.TrimSpace(day)) == current {
			return true
		}
	}
	return false
}

// customIntervalMatches is undefined (false) when the start date or the
// interval is missing.
func customIntervalMatches(r domain.Reminder, now time.Time) bool {
	if r.StartDate == nil || r.FrequencyValue == 0 {
		return false
	}
	days := int(dateOf(now).Sub(dateOf(*r.StartDate)).Hours() / 24)
	return days%r.FrequencyValue == 0
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
