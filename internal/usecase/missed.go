package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

// GraceWindow is how long after the scheduled time a pending dose may still
// be acknowledged before it is declared missed.
const GraceWindow = 30 * time.Minute

// MissedSweepDeps wires the collaborators of the missed-dose sweep.
type MissedSweepDeps struct {
	Logs      ports.ReminderLogStore
	Contacts  ports.ContactStore
	Deliverer *Deliverer
	Logger    *slog.Logger
}

// MissedSweep marks overdue pending logs as missed, notifies the user and
// escalates high/critical medications to emergency contacts.
type MissedSweep struct {
	logs      ports.ReminderLogStore
	contacts  ports.ContactStore
	deliverer *Deliverer
	logger    *slog.Logger
}

// NewMissedSweep constructs the sweep use case.
func NewMissedSweep(deps MissedSweepDeps) *MissedSweep {
	return &MissedSweep{
		logs:      deps.Logs,
		contacts:  deps.Contacts,
		deliverer: deps.Deliverer,
		logger:    deps.Logger,
	}
}

// Run processes every pending log older than the grace window. Each log is
// transitioned in its own transaction; failures are isolated per log. All
// delivery is dispatched in one batch afterwards.
func (m *MissedSweep) Run(ctx context.Context, now time.Time) (int, error) {
	overdue, err := m.logs.PendingBefore(ctx, now.Add(-GraceWindow))
	if err != nil {
		return 0, fmt.Errorf("load overdue logs: %w", err)
	}

	var created []int64
	missed := 0
	for _, entry := range overdue {
		notifs, err := m.buildAlerts(ctx, entry, now)
		if err != nil {
			m.logger.Error("build missed-dose alerts failed",
				"log_id", entry.Log.ID, "error", err)
			continue
		}

		ids, err := m.logs.MarkMissedWithAlerts(ctx, entry.Log.ID, notifs)
		if err != nil {
			m.logger.Error("mark missed failed", "log_id", entry.Log.ID, "error", err)
			continue
		}
		created = append(created, ids...)
		missed++
	}

	m.deliverer.Dispatch(created)

	m.logger.Info("missed-dose sweep done", "overdue", len(overdue), "missed", missed,
		"notifications", len(created))
	return missed, nil
}

func (m *MissedSweep) buildAlerts(ctx context.Context, entry domain.LogDetail, now time.Time) ([]domain.Notification, error) {
	item := entry.Detail
	name := item.Subscription.DisplayName(item.Medication)

	notifs := []domain.Notification{{
		UserID:      item.User.ID,
		ReminderID:  &item.Reminder.ID,
		Type:        domain.TypeMissedDose,
		Title:       "⚠️ Missed dose",
		Message:     fmt.Sprintf("You have not recorded taking %s", name),
		Method:      domain.DeliveryPush,
		ScheduledAt: now,
		Status:      domain.NotificationPending,
	}}

	if !item.Medication.Criticality.Escalates() {
		return notifs, nil
	}

	contacts, err := m.contacts.MissedDoseContacts(ctx, item.User.ID)
	if err != nil {
		return nil, fmt.Errorf("load emergency contacts: %w", err)
	}
	for _, contact := range contacts {
		if contact.Email == "" {
			continue
		}
		notifs = append(notifs, domain.Notification{
			UserID:      item.User.ID,
			Type:        domain.TypeEmergencyAlert,
			Title:       fmt.Sprintf("Alert: missed dose - %s", item.User.FirstName),
			Message:     fmt.Sprintf("%s has not taken their medication %s", item.User.FirstName, item.Medication.Name),
			Method:      domain.DeliveryEmail,
			Recipient:   contact.Email,
			ScheduledAt: now,
			Status:      domain.NotificationPending,
		})
	}
	return notifs, nil
}
