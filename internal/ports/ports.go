package ports

import (
	"context"
	"time"

	"MedTracker/internal/domain"
)

// Clock abstracts time.Now so background jobs stay testable.
type Clock interface {
	Now() time.Time
}

// ReminderStore exposes the reminders the scan loop sweeps over.
type ReminderStore interface {
	// ActiveReminders returns every reminder with is_active and event_enabled
	// set, joined with its subscription, medication and user.
	ActiveReminders(ctx context.Context) ([]domain.ReminderDetail, error)
}

// ReminderLogStore persists due-occurrence logs. Mutations that must commit
// together with notification rows take them in one call so the storage layer
// can scope a single transaction.
type ReminderLogStore interface {
	// CreateWithNotifications inserts one pending log plus its notifications
	// atomically and returns the created notification IDs.
	CreateWithNotifications(ctx context.Context, log domain.ReminderLog, notifs []domain.Notification) ([]int64, error)
	// PendingBefore lists pending logs scheduled before the cutoff, resolved
	// back to their reminder context.
	PendingBefore(ctx context.Context, cutoff time.Time) ([]domain.LogDetail, error)
	// MarkMissedWithAlerts flips one log to missed and inserts the
	// accompanying notifications in the same transaction.
	MarkMissedWithAlerts(ctx context.Context, logID int64, notifs []domain.Notification) ([]int64, error)
	// Acknowledge records the user taking the dose. Terminal.
	Acknowledge(ctx context.Context, logID int64, at time.Time) error
	// DeleteBefore purges logs created before the cutoff, returning the count.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationStore persists delivery attempt records.
type NotificationStore interface {
	// PendingInWindow reports whether a pending notification for the
	// (user, reminder) pair is already scheduled inside [from, to].
	PendingInWindow(ctx context.Context, userID, reminderID int64, from, to time.Time) (bool, error)
	Get(ctx context.Context, id int64) (domain.Notification, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	// RecordRetry increments retry_count and stores the delivery error while
	// the notification stays pending.
	RecordRetry(ctx context.Context, id int64, deliveryErr string) error
	MarkFailed(ctx context.Context, id int64, deliveryErr string) error
	// MarkRead is the user acknowledgment path; it is scoped by user so one
	// user cannot read another's notifications.
	MarkRead(ctx context.Context, userID, id int64, at time.Time) error
	// ListForUser returns the user's notifications newest first, optionally
	// filtered by status; an empty status means all.
	ListForUser(ctx context.Context, userID int64, status domain.NotificationStatus, limit int) ([]domain.Notification, error)
	// DeleteReadBefore purges read notifications created before the cutoff.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ContactStore resolves escalation targets for missed critical doses.
type ContactStore interface {
	// MissedDoseContacts returns the user's emergency contacts flagged for
	// missed-dose alerts.
	MissedDoseContacts(ctx context.Context, userID int64) ([]domain.EmergencyContact, error)
}

// SubscriptionStore exposes the active medication subscriptions of a user.
type SubscriptionStore interface {
	ActiveForUser(ctx context.Context, userID int64) ([]domain.SubscriptionDetail, error)
}

// IntakeStore persists and aggregates user-reported dose events.
type IntakeStore interface {
	Create(ctx context.Context, userID int64, intake *domain.MedicationIntake) error
	// Correct edits an existing intake; it rejects intakes the user does not own.
	Correct(ctx context.Context, userID int64, intake domain.MedicationIntake) error
	// CountsInWindow tallies intakes recorded inside [from, to] by status.
	CountsInWindow(ctx context.Context, subscriptionID int64, from, to time.Time) (domain.IntakeCounts, error)
	// CountsOnDay tallies intakes whose dose timestamp falls on the given day.
	CountsOnDay(ctx context.Context, subscriptionID int64, day time.Time) (domain.IntakeCounts, error)
}

// MediaStore records uploaded files and their analysis results.
type MediaStore interface {
	CreateMediaFile(ctx context.Context, file *domain.MediaFile) error
}

// FileStore keeps uploaded media bytes. Save validates the payload and is
// expected to discard files that fail validation.
type FileStore interface {
	Save(ctx context.Context, userID int64, originalName string, data []byte) (domain.StoredFile, error)
	Remove(ctx context.Context, path string) error
}

// DeliverySink pushes one notification out on its channel and reports
// success or failure. Transport details live behind this interface.
type DeliverySink interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Classifier is the external AI oracle turning images or free text into
// structured medication fields and a criticality label.
type Classifier interface {
	AnalyzePrescription(ctx context.Context, image []byte, mimeType string) (domain.MedicationAnalysis, error)
	AnalyzePackage(ctx context.Context, image []byte, mimeType string) (domain.MedicationAnalysis, error)
	AnalyzeText(ctx context.Context, fields domain.MedicationFields) (domain.MedicationAnalysis, error)
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Task is one fire-and-forget unit of background work.
type Task func(ctx context.Context)

// TaskQueue defers tasks for later execution; a delivery retry is a newly
// enqueued task, never a blocking loop.
type TaskQueue interface {
	Enqueue(delay time.Duration, task Task)
}

// Job is a scheduled sweep invocation.
type Job func(now time.Time)

// Scheduler drives the periodic background jobs.
type Scheduler interface {
	Every(interval time.Duration, name string, job Job)
	DailyAt(hour, minute int, name string, job Job)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
