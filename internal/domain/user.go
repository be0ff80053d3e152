package domain

import "time"

// User owns subscriptions, reminders and notifications.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

// EmergencyContact receives escalation alerts for missed critical doses.
type EmergencyContact struct {
	ID                int64
	UserID            int64
	Name              string
	Relationship      string
	Phone             string
	Email             string
	IsPrimary         bool
	NotifyMissedDoses bool
}
