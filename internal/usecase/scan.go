package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
	"MedTracker/internal/recurrence"
)

// DedupWindow is the half-width of the duplicate-suppression window: a due
// event produces no new notification while a pending one is already
// scheduled within this range of now. The scan runs every minute with a
// one-minute recurrence tolerance, so adjacent ticks would otherwise double
// up on the same occurrence.
const DedupWindow = 30 * time.Minute

// ScanDeps wires the collaborators of the reminder scan loop.
type ScanDeps struct {
	Reminders     ports.ReminderStore
	Logs          ports.ReminderLogStore
	Notifications ports.NotificationStore
	Deliverer     *Deliverer
	Logger        *slog.Logger
}

// Scan is the periodic sweep over active reminders. Each due reminder gets
// exactly one pending log plus one notification per enabled channel, created
// atomically, then handed to delivery.
type Scan struct {
	reminders     ports.ReminderStore
	logs          ports.ReminderLogStore
	notifications ports.NotificationStore
	deliverer     *Deliverer
	logger        *slog.Logger
}

// NewScan constructs the scan loop use case.
func NewScan(deps ScanDeps) *Scan {
	return &Scan{
		reminders:     deps.Reminders,
		logs:          deps.Logs,
		notifications: deps.Notifications,
		deliverer:     deps.Deliverer,
		logger:        deps.Logger,
	}
}

// Run evaluates every active reminder against now. A failure on one reminder
// is logged and skipped; it never aborts the rest of the batch. Returns how
// many reminders had notifications scheduled.
func (s *Scan) Run(ctx context.Context, now time.Time) (int, error) {
	items, err := s.reminders.ActiveReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active reminders: %w", err)
	}

	scheduled := 0
	for _, item := range items {
		if !recurrence.IsDue(item.Reminder, now) {
			continue
		}

		created, err := s.processDue(ctx, item, now)
		if err != nil {
			s.logger.Error("process reminder failed",
				"reminder_id", item.Reminder.ID, "error", err)
			continue
		}
		if created {
			scheduled++
		}
	}

	s.logger.Info("reminder scan done", "reminders", len(items), "scheduled", scheduled)
	return scheduled, nil
}

// processDue applies the dedup guard, then commits the log and its
// notifications together before dispatching delivery.
func (s *Scan) processDue(ctx context.Context, item domain.ReminderDetail, now time.Time) (bool, error) {
	exists, err := s.notifications.PendingInWindow(ctx,
		item.User.ID, item.Reminder.ID, now.Add(-DedupWindow), now.Add(DedupWindow))
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	if exists {
		return false, nil
	}

	notifs := buildReminderNotifications(item, now)
	if len(notifs) == 0 {
		return false, nil
	}

	log := domain.ReminderLog{
		ReminderID:    item.Reminder.ID,
		ScheduledTime: now,
		Status:        domain.LogPending,
	}

	ids, err := s.logs.CreateWithNotifications(ctx, log, notifs)
	if err != nil {
		return false, fmt.Errorf("create log and notifications: %w", err)
	}

	s.deliverer.Dispatch(ids)
	return true, nil
}

func buildReminderNotifications(item domain.ReminderDetail, now time.Time) []domain.Notification {
	name := item.Subscription.DisplayName(item.Medication)
	dosage := item.Subscription.PrescribedDosage
	if dosage == "" {
		dosage = "your prescribed dose"
	}

	var notifs []domain.Notification
	if item.Reminder.PushEnabled {
		notifs = append(notifs, domain.Notification{
			UserID:      item.User.ID,
			ReminderID:  &item.Reminder.ID,
			Type:        domain.TypeMedicationReminder,
			Title:       fmt.Sprintf("💊 Reminder: %s", name),
			Message:     fmt.Sprintf("Time to take your medication: %s", dosage),
			Method:      domain.DeliveryPush,
			ScheduledAt: now,
			Status:      domain.NotificationPending,
		})
	}
	if item.Reminder.EmailEnabled && item.User.Email != "" {
		instructions := item.Subscription.DoctorInstructions
		if instructions == "" {
			instructions = "N/A"
		}
		notifs = append(notifs, domain.Notification{
			UserID:      item.User.ID,
			ReminderID:  &item.Reminder.ID,
			Type:        domain.TypeMedicationReminder,
			Title:       fmt.Sprintf("Reminder: %s", name),
			Message:     fmt.Sprintf("Time to take %s.\n\nInstructions: %s", dosage, instructions),
			Method:      domain.DeliveryEmail,
			Recipient:   item.User.Email,
			ScheduledAt: now,
			Status:      domain.NotificationPending,
		})
	}
	return notifs
}
