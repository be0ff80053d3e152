package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

// RetryDelay is how long a failed delivery waits before its re-attempt is
// eligible to run. The re-attempt is a freshly enqueued task, not a resumed
// one.
const RetryDelay = 300 * time.Second

// DelivererDeps wires the delivery collaborators.
type DelivererDeps struct {
	Notifications ports.NotificationStore
	Queue         ports.TaskQueue
	Clock         ports.Clock
	Logger        *slog.Logger
	// RetryDelay overrides the default deferred-retry delay when non-zero.
	RetryDelay time.Duration
}

// Deliverer executes delivery attempts and drives the per-notification state
// machine: pending to sent on success, pending back to pending a bounded
// number of retries, then failed.
type Deliverer struct {
	notifications ports.NotificationStore
	sinks         map[domain.DeliveryMethod]ports.DeliverySink
	queue         ports.TaskQueue
	clock         ports.Clock
	retryDelay    time.Duration
	logger        *slog.Logger
}

// NewDeliverer constructs the delivery component with no sinks registered.
func NewDeliverer(deps DelivererDeps) *Deliverer {
	delay := deps.RetryDelay
	if delay == 0 {
		delay = RetryDelay
	}
	return &Deliverer{
		notifications: deps.Notifications,
		sinks:         map[domain.DeliveryMethod]ports.DeliverySink{},
		queue:         deps.Queue,
		clock:         deps.Clock,
		retryDelay:    delay,
		logger:        deps.Logger,
	}
}

// RegisterSink attaches the transport for one delivery method.
func (d *Deliverer) RegisterSink(method domain.DeliveryMethod, sink ports.DeliverySink) {
	d.sinks[method] = sink
}

// Dispatch enqueues an immediate delivery task per notification ID.
func (d *Deliverer) Dispatch(ids []int64) {
	for _, id := range ids {
		id := id
		d.queue.Enqueue(0, func(ctx context.Context) {
			if err := d.Deliver(ctx, id); err != nil {
				d.logger.Error("delivery task failed", "notification_id", id, "error", err)
			}
		})
	}
}

// Deliver attempts one notification. Non-pending notifications are skipped:
// a retry that raced a user acknowledgment must not resend.
func (d *Deliverer) Deliver(ctx context.Context, id int64) error {
	n, err := d.notifications.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load notification %d: %w", id, err)
	}
	if n.Status != domain.NotificationPending {
		return nil
	}

	sink, ok := d.sinks[n.Method]
	if !ok {
		return d.handleFailure(ctx, n, fmt.Errorf("no sink registered for method %q", n.Method))
	}

	if err := sink.Send(ctx, n); err != nil {
		return d.handleFailure(ctx, n, err)
	}

	if err := d.notifications.MarkSent(ctx, id, d.clock.Now()); err != nil {
		return fmt.Errorf("mark sent %d: %w", id, err)
	}
	d.logger.Info("notification sent", "notification_id", id, "method", n.Method)
	return nil
}

// handleFailure either schedules a deferred re-attempt or, once the retry
// budget is spent, marks the notification failed for good.
func (d *Deliverer) handleFailure(ctx context.Context, n domain.Notification, cause error) error {
	if n.RetryCount < domain.MaxDeliveryRetries {
		if err := d.notifications.RecordRetry(ctx, n.ID, cause.Error()); err != nil {
			return fmt.Errorf("record retry %d: %w", n.ID, err)
		}
		id := n.ID
		d.queue.Enqueue(d.retryDelay, func(ctx context.Context) {
			if err := d.Deliver(ctx, id); err != nil {
				d.logger.Error("delivery retry failed", "notification_id", id, "error", err)
			}
		})
		d.logger.Warn("delivery failed, retry scheduled",
			"notification_id", n.ID, "retry", n.RetryCount+1, "error", cause)
		return nil
	}

	if err := d.notifications.MarkFailed(ctx, n.ID, cause.Error()); err != nil {
		return fmt.Errorf("mark failed %d: %w", n.ID, err)
	}
	d.logger.Error("delivery exhausted retries", "notification_id", n.ID, "error", cause)
	return nil
}
