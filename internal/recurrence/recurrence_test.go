package recurrence

import (
	"testing"
	"time"

	"MedTracker/internal/domain"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func at(h, min int) *domain.TimeOfDay {
	return &domain.TimeOfDay{Hour: h, Minute: min}
}

func TestDailyToleranceWindow(t *testing.T) {
	t.Parallel()

	r := domain.Reminder{
		ReminderTime:  at(9, 30),
		FrequencyType: domain.FrequencyDaily,
	}

	cases := []struct {
		hour, minute int
		want         bool
	}{
		{9, 28, false},
		{9, 29, true},
		{9, 30, true},
		{9, 31, true},
		{9, 32, false},
		{21, 30, false},
	}

	for _, tc := range cases {
		now := time.Date(2025, time.March, 10, tc.hour, tc.minute, 0, 0, time.UTC)
		if got := IsDue(r, now); got != tc.want {
			t.Errorf("IsDue at %02d:%02d = %v, want %v", tc.hour, tc.minute, got, tc.want)
		}
	}
}

func TestNoReminderTimeNeverDue(t *testing.T) {
	t.Parallel()

	r := domain.Reminder{FrequencyType: domain.FrequencyDaily}
	now := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	if IsDue(r, now) {
		t.Fatal("reminder without a time must never be due")
	}
}

func TestDateRangeGating(t *testing.T) {
	t.Parallel()

	r := domain.Reminder{
		ReminderTime:  at(8, 0),
		FrequencyType: domain.FrequencyDaily,
		StartDate:     date(2025, time.March, 5),
		EndDate:       date(2025, time.March, 15),
	}

	before := time.Date(2025, time.March, 4, 8, 0, 0, 0, time.UTC)
	inside := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	last := time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC)
	after := time.Date(2025, time.March, 16, 8, 0, 0, 0, time.UTC)

	if IsDue(r, before) {
		t.Error("due before start date")
	}
	if !IsDue(r, inside) {
		t.Error("not due inside date range")
	}
	if !IsDue(r, last) {
		t.Error("end date itself should be inclusive")
	}
	if IsDue(r, after) {
		t.Error("due after end date")
	}
}

func TestWeeklyDayList(t *testing.T) {
	t.Parallel()

	r := domain.Reminder{
		ReminderTime:  at(20, 0),
		FrequencyType: domain.FrequencyWeekly,
		DaysOfWeek:    "Monday, wednesday ,FRIDAY",
	}

	monday := time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC)
	tuesday := time.Date(2025, time.March, 11, 20, 0, 0, 0, time.UTC)
	friday := time.Date(2025, time.March, 14, 20, 0, 0, 0, time.UTC)

	if !IsDue(r, monday) {
		t.Error("monday should be due")
	}
	if IsDue(r, tuesday) {
		t.Error("tuesday should not be due")
	}
	if !IsDue(r, friday) {
		t.Error("case-insensitive friday should be due")
	}

	r.DaysOfWeek = ""
	if IsDue(r, monday) {
		t.Error("weekly reminder without a day list must not be due")
	}
}

func TestMonthlyDayOfMonth(t *testing.T) {
	t.Parallel()

	r := domain.Reminder{
		ReminderTime:   at(7, 15),
		FrequencyType:  domain.FrequencyMonthly,
		FrequencyValue: 14,
	}

	due := time.Date(2025, time.June, 14, 7, 15, 0, 0, time.UTC)
	notDue := time.Date(2025, time.June, 15, 7, 15, 0, 0, time.UTC)

	if !IsDue(r, due) {
		t.Error("day 14 should be due")
	}
	if IsDue(r, notDue) {
		t.Error("day 15 should not be due")
	}

	r.FrequencyValue = 0
	if IsDue(r, due) {
		t.Error("monthly reminder without a day value must not be due")
	}
}

func TestCustomIntervalModulo(t *testing.T) {
	t.Parallel()

	r := domain.Reminder{
		ReminderTime:   at(12, 0),
		FrequencyType:  domain.FrequencyCustom,
		FrequencyValue: 3,
		StartDate:      date(2025, time.March, 1),
	}

	for offset := 0; offset < 10; offset++ {
		now := time.Date(2025, time.March, 1+offset, 12, 0, 0, 0, time.UTC)
		want := offset%3 == 0
		if got := IsDue(r, now); got != want {
			t.Errorf("offset %d: IsDue = %v, want %v", offset, got, want)
		}
	}
}

func TestCustomIntervalMissingOperands(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

	noStart := domain.Reminder{
		ReminderTime:   at(12, 0),
		FrequencyType:  domain.FrequencyCustom,
		FrequencyValue: 3,
	}
	if IsDue(noStart, now) {
		t.Error("custom rule without start date must not be due")
	}

	noValue := domain.Reminder{
		ReminderTime:  at(12, 0),
		FrequencyType: domain.FrequencyCustom,
		StartDate:     date(2025, time.March, 1),
	}
	if IsDue(noValue, now) {
		t.Error("custom rule without interval must not be due")
	}
}

func TestUnknownFrequencyNotDue(t *testing.T) {
	t.Parallel()

	r := domain.Reminder{
		ReminderTime:  at(12, 0),
		FrequencyType: domain.FrequencyType("hourly"),
	}
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
	if IsDue(r, now) {
		t.Error("unknown frequency type must not match")
	}
}
