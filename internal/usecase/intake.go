package usecase

import (
	"context"
	"fmt"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

// Tracker covers the user-facing write paths: logging doses, correcting
// them, and acknowledging reminders and notifications. Ownership checks
// happen in the store before any mutation.
type Tracker struct {
	intakes       ports.IntakeStore
	logs          ports.ReminderLogStore
	notifications ports.NotificationStore
	clock         ports.Clock
}

// NewTracker wires the intake stores.
func NewTracker(intakes ports.IntakeStore, logs ports.ReminderLogStore, notifications ports.NotificationStore, clock ports.Clock) *Tracker {
	return &Tracker{intakes: intakes, logs: logs, notifications: notifications, clock: clock}
}

// LogIntake records a dose event for the user. When the intake references a
// reminder log and the dose was taken, the log is acknowledged as well.
func (t *Tracker) LogIntake(ctx context.Context, userID int64, intake *domain.MedicationIntake) error {
	if intake.Status == "" {
		intake.Status = domain.IntakeTaken
	}
	if intake.StatusAt.IsZero() {
		intake.StatusAt = t.clock.Now()
	}

	if err := t.intakes.Create(ctx, userID, intake); err != nil {
		return fmt.Errorf("create intake: %w", err)
	}

	if intake.ReminderLogID != nil && intake.Status == domain.IntakeTaken {
		if err := t.logs.Acknowledge(ctx, *intake.ReminderLogID, intake.StatusAt); err != nil {
			return fmt.Errorf("acknowledge reminder log %d: %w", *intake.ReminderLogID, err)
		}
	}
	return nil
}

// CorrectIntake edits an earlier intake record in place.
func (t *Tracker) CorrectIntake(ctx context.Context, userID int64, intake domain.MedicationIntake) error {
	if err := t.intakes.Correct(ctx, userID, intake); err != nil {
		return fmt.Errorf("correct intake %d: %w", intake.ID, err)
	}
	return nil
}

// MarkNotificationRead moves a notification to its read terminal state on
// explicit user acknowledgment, independent of delivery outcome.
func (t *Tracker) MarkNotificationRead(ctx context.Context, userID, notificationID int64) error {
	if err := t.notifications.MarkRead(ctx, userID, notificationID, t.clock.Now()); err != nil {
		return fmt.Errorf("mark notification %d read: %w", notificationID, err)
	}
	return nil
}

// Notifications lists the user's notifications, newest first. This is how
// exhausted deliveries surface; they are never re-attempted automatically.
func (t *Tracker) Notifications(ctx context.Context, userID int64, status domain.NotificationStatus, limit int) ([]domain.Notification, error) {
	out, err := t.notifications.ListForUser(ctx, userID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}
