// Package scheduler drives the periodic background jobs with plain tickers.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"MedTracker/internal/ports"
)

type entry struct {
	name     string
	interval time.Duration
	hour     int
	minute   int
	daily    bool
	job      ports.Job
}

// IntervalScheduler runs registered jobs on fixed intervals or at a fixed
// local time every day. Jobs must be non-blocking; the use-case layer
// dispatches real work through the task queue.
type IntervalScheduler struct {
	location *time.Location
	logger   *slog.Logger
	entries  []entry
	stop     chan struct{}
	wg       sync.WaitGroup
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// New builds a scheduler ticking in the given location.
func New(location *time.Location, logger *slog.Logger) *IntervalScheduler {
	if location == nil {
		location = time.UTC
	}
	return &IntervalScheduler{location: location, logger: logger}
}

// Every registers a fixed-interval job. Must be called before Start.
func (s *IntervalScheduler) Every(interval time.Duration, name string, job ports.Job) {
	s.entries = append(s.entries, entry{name: name, interval: interval, job: job})
}

// DailyAt registers a job firing once per day at the given local time.
func (s *IntervalScheduler) DailyAt(hour, minute int, name string, job ports.Job) {
	s.entries = append(s.entries, entry{name: name, hour: hour, minute: minute, daily: true, job: job})
}

// Start launches one goroutine per registered job.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	if s.stop != nil {
		return nil
	}
	s.stop = make(chan struct{})

	for _, e := range s.entries {
		e := e
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if e.daily {
				s.runDaily(ctx, e)
			} else {
				s.runInterval(ctx, e)
			}
		}()
	}

	s.logger.Info("scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop halts all job goroutines and waits for them to exit.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.stop = nil
	return nil
}

func (s *IntervalScheduler) runInterval(ctx context.Context, e entry) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case t := <-ticker.C:
			e.job(t.In(s.location))
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		}
	}
}

func (s *IntervalScheduler) runDaily(ctx context.Context, e entry) {
	for {
		now := time.Now().In(s.location)
		next := time.Date(now.Year(), now.Month(), now.Day(), e.hour, e.minute, 0, 0, s.location)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case t := <-timer.C:
			e.job(t.In(s.location))
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		}
	}
}
