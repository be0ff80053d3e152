package usecase

import (
	"context"
	"log/slog"
	"time"

	"MedTracker/internal/ports"
)

// Jobs binds the background use cases to the scheduler. Every invocation is
// dispatched through the task queue as an independent unit of work so a slow
// or failing sweep never blocks the scheduler loop.
type Jobs struct {
	scan    *Scan
	sweep   *MissedSweep
	cleanup *Cleanup
	queue   ports.TaskQueue
	logger  *slog.Logger

	ScanInterval  time.Duration
	SweepInterval time.Duration
	CleanupHour   int
	CleanupMinute int
}

// NewJobs wires the three periodic jobs with their default cadence: scan
// every minute, sweep every five, cleanup daily at 02:00.
func NewJobs(scan *Scan, sweep *MissedSweep, cleanup *Cleanup, queue ports.TaskQueue, logger *slog.Logger) *Jobs {
	return &Jobs{
		scan:          scan,
		sweep:         sweep,
		cleanup:       cleanup,
		queue:         queue,
		logger:        logger,
		ScanInterval:  60 * time.Second,
		SweepInterval: 300 * time.Second,
		CleanupHour:   2,
		CleanupMinute: 0,
	}
}

// Register installs the jobs on the scheduler.
func (j *Jobs) Register(s ports.Scheduler) {
	s.Every(j.ScanInterval, "reminder-scan", func(now time.Time) {
		j.queue.Enqueue(0, func(ctx context.Context) {
			if _, err := j.scan.Run(ctx, now); err != nil {
				j.logger.Error("reminder scan failed", "error", err)
			}
		})
	})

	s.Every(j.SweepInterval, "missed-dose-sweep", func(now time.Time) {
		j.queue.Enqueue(0, func(ctx context.Context) {
			if _, err := j.sweep.Run(ctx, now); err != nil {
				j.logger.Error("missed-dose sweep failed", "error", err)
			}
		})
	})

	s.DailyAt(j.CleanupHour, j.CleanupMinute, "notification-cleanup", func(now time.Time) {
		j.queue.Enqueue(0, func(ctx context.Context) {
			if err := j.cleanup.Run(ctx, now); err != nil {
				j.logger.Error("cleanup failed", "error", err)
			}
		})
	})
}
