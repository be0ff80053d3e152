package domain

import "time"

// FrequencyType selects the recurrence rule of a reminder.
type FrequencyType string

const (
	FrequencyDaily   FrequencyType = "daily"
	FrequencyWeekly  FrequencyType = "weekly"
	FrequencyMonthly FrequencyType = "monthly"
	FrequencyCustom  FrequencyType = "custom"
)

// TimeOfDay is a clock time without a date, stored as minutes are compared.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the offset from midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Reminder schedules recurring dose notifications for one subscription.
// The scan loop only ever appends logs; the rule itself is mutated by the
// owning user alone. Deletion is a soft flip of IsActive.
type Reminder struct {
	ID             int64
	SubscriptionID int64
	Title          string
	Description    string
	ReminderTime   *TimeOfDay
	DaysOfWeek     string // comma-separated weekday names for weekly rules
	FrequencyType  FrequencyType
	FrequencyValue int
	StartDate      *time.Time
	EndDate        *time.Time
	IsActive       bool
	EventEnabled   bool
	CalendarEvent  bool
	PushEnabled    bool
	EmailEnabled   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LogStatus tracks one evaluated due-occurrence of a reminder.
// Acknowledged and missed are terminal.
type LogStatus string

const (
	LogPending      LogStatus = "pending"
	LogSent         LogStatus = "sent"
	LogAcknowledged LogStatus = "acknowledged"
	LogMissed       LogStatus = "missed"
)

// ReminderLog is created by the scan loop for each due occurrence and
// transitioned by the missed-dose sweep or user acknowledgment.
type ReminderLog struct {
	ID            int64
	ReminderID    int64
	ScheduledTime time.Time
	ActualTime    *time.Time
	Status        LogStatus
	CreatedAt     time.Time
}

// ReminderDetail is the joined view the background jobs operate on: a
// reminder with its subscription, medication and owning user resolved.
type ReminderDetail struct {
	Reminder     Reminder
	Subscription Subscription
	Medication   Medication
	User         User
}

// LogDetail resolves a pending log back to its reminder context for the
// missed-dose sweep.
type LogDetail struct {
	Log    ReminderLog
	Detail ReminderDetail
}
