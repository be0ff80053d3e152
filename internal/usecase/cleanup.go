package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MedTracker/internal/ports"
)

// RetentionDays is how long read notifications and reminder logs are kept
// before the daily cleanup purges them.
const RetentionDays = 30

// Cleanup purges aged notification and log rows.
type Cleanup struct {
	notifications ports.NotificationStore
	logs          ports.ReminderLogStore
	logger        *slog.Logger
}

// NewCleanup constructs the retention job.
func NewCleanup(notifications ports.NotificationStore, logs ports.ReminderLogStore, logger *slog.Logger) *Cleanup {
	return &Cleanup{notifications: notifications, logs: logs, logger: logger}
}

// Run deletes read notifications and reminder logs older than the retention
// window. Safe to re-run or skip.
func (c *Cleanup) Run(ctx context.Context, now time.Time) error {
	cutoff := now.AddDate(0, 0, -RetentionDays)

	deleted, err := c.notifications.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge notifications: %w", err)
	}

	logs, err := c.logs.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge reminder logs: %w", err)
	}

	c.logger.Info("cleanup done", "notifications_deleted", deleted, "logs_deleted", logs)
	return nil
}
