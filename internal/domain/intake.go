package domain

import "time"

// IntakeStatus records how the user resolved one dose.
type IntakeStatus string

const (
	IntakeTaken   IntakeStatus = "taken"
	IntakeMissed  IntakeStatus = "missed"
	IntakeSkipped IntakeStatus = "skipped"
)

// MedicationIntake is a user-reported dose event. It is never auto-deleted;
// corrections edit the row in place.
type MedicationIntake struct {
	ID             int64
	SubscriptionID int64
	ReminderLogID  *int64
	StatusAt       time.Time
	DosageTaken    string
	Status         IntakeStatus
	Notes          string
	CreatedAt      time.Time
}

// IntakeCounts tallies intakes by status over a window.
type IntakeCounts struct {
	Taken   int
	Missed  int
	Skipped int
}

// Total is the number of recorded intakes regardless of status.
func (c IntakeCounts) Total() int {
	return c.Taken + c.Missed + c.Skipped
}
