package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

var errFakeNotFound = errors.New("not found")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

type queuedTask struct {
	delay time.Duration
	task  ports.Task
}

// recordingQueue captures enqueued tasks so tests control execution order.
type recordingQueue struct {
	tasks []queuedTask
}

func (q *recordingQueue) Enqueue(delay time.Duration, task ports.Task) {
	q.tasks = append(q.tasks, queuedTask{delay: delay, task: task})
}

// drain runs queued tasks, including tasks those tasks enqueue, until the
// queue is empty. Returns the number of tasks executed.
func (q *recordingQueue) drain(ctx context.Context) int {
	ran := 0
	for len(q.tasks) > 0 {
		batch := q.tasks
		q.tasks = nil
		for _, t := range batch {
			t.task(ctx)
			ran++
		}
	}
	return ran
}

type fakeNotificationStore struct {
	notifs     map[int64]*domain.Notification
	nextID     int64
	readCutoff time.Time
	readPurged int64
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifs: map[int64]*domain.Notification{}}
}

func (s *fakeNotificationStore) add(n domain.Notification) int64 {
	s.nextID++
	n.ID = s.nextID
	s.notifs[n.ID] = &n
	return n.ID
}

func (s *fakeNotificationStore) PendingInWindow(_ context.Context, userID, reminderID int64, from, to time.Time) (bool, error) {
	for _, n := range s.notifs {
		if n.UserID != userID || n.Status != domain.NotificationPending {
			continue
		}
		if n.ReminderID == nil || *n.ReminderID != reminderID {
			continue
		}
		if !n.ScheduledAt.Before(from) && !n.ScheduledAt.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeNotificationStore) Get(_ context.Context, id int64) (domain.Notification, error) {
	n, ok := s.notifs[id]
	if !ok {
		return domain.Notification{}, errFakeNotFound
	}
	return *n, nil
}

func (s *fakeNotificationStore) MarkSent(_ context.Context, id int64, at time.Time) error {
	n, ok := s.notifs[id]
	if !ok {
		return errFakeNotFound
	}
	n.Status = domain.NotificationSent
	n.SentAt = &at
	return nil
}

func (s *fakeNotificationStore) RecordRetry(_ context.Context, id int64, deliveryErr string) error {
	n, ok := s.notifs[id]
	if !ok {
		return errFakeNotFound
	}
	n.RetryCount++
	n.ErrorMessage = deliveryErr
	return nil
}

func (s *fakeNotificationStore) MarkFailed(_ context.Context, id int64, deliveryErr string) error {
	n, ok := s.notifs[id]
	if !ok {
		return errFakeNotFound
	}
	n.Status = domain.NotificationFailed
	n.ErrorMessage = deliveryErr
	return nil
}

func (s *fakeNotificationStore) MarkRead(_ context.Context, userID, id int64, at time.Time) error {
	n, ok := s.notifs[id]
	if !ok || n.UserID != userID {
		return errFakeNotFound
	}
	n.Status = domain.NotificationRead
	n.ReadAt = &at
	return nil
}

func (s *fakeNotificationStore) ListForUser(_ context.Context, userID int64, status domain.NotificationStatus, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range s.notifs {
		if n.UserID != userID {
			continue
		}
		if status != "" && n.Status != status {
			continue
		}
		out = append(out, *n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.readCutoff = cutoff
	return s.readPurged, nil
}

func (s *fakeNotificationStore) pendingCount() int {
	n := 0
	for _, notif := range s.notifs {
		if notif.Status == domain.NotificationPending {
			n++
		}
	}
	return n
}

type fakeLogStore struct {
	notifStore *fakeNotificationStore

	logs   map[int64]*domain.ReminderLog
	nextID int64

	overdue []domain.LogDetail

	acked         map[int64]time.Time
	logCutoff     time.Time
	logsPurged    int64
	markMissedErr map[int64]error
	createErr     error
}

func newFakeLogStore(notifs *fakeNotificationStore) *fakeLogStore {
	return &fakeLogStore{
		notifStore:    notifs,
		logs:          map[int64]*domain.ReminderLog{},
		acked:         map[int64]time.Time{},
		markMissedErr: map[int64]error{},
	}
}

func (s *fakeLogStore) CreateWithNotifications(_ context.Context, log domain.ReminderLog, notifs []domain.Notification) ([]int64, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	log.ID = s.nextID
	s.logs[log.ID] = &log

	ids := make([]int64, 0, len(notifs))
	for _, n := range notifs {
		ids = append(ids, s.notifStore.add(n))
	}
	return ids, nil
}

func (s *fakeLogStore) PendingBefore(_ context.Context, cutoff time.Time) ([]domain.LogDetail, error) {
	var out []domain.LogDetail
	for _, entry := range s.overdue {
		if entry.Log.ScheduledTime.Before(cutoff) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *fakeLogStore) MarkMissedWithAlerts(_ context.Context, logID int64, notifs []domain.Notification) ([]int64, error) {
	if err := s.markMissedErr[logID]; err != nil {
		return nil, err
	}
	if log, ok := s.logs[logID]; ok {
		if log.Status != domain.LogPending {
			return nil, nil
		}
		log.Status = domain.LogMissed
	}
	ids := make([]int64, 0, len(notifs))
	for _, n := range notifs {
		ids = append(ids, s.notifStore.add(n))
	}
	return ids, nil
}

func (s *fakeLogStore) Acknowledge(_ context.Context, logID int64, at time.Time) error {
	s.acked[logID] = at
	return nil
}

func (s *fakeLogStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.logCutoff = cutoff
	return s.logsPurged, nil
}

type fakeReminderStore struct {
	items []domain.ReminderDetail
	err   error
}

func (s *fakeReminderStore) ActiveReminders(context.Context) ([]domain.ReminderDetail, error) {
	return s.items, s.err
}

type fakeContactStore struct {
	contacts []domain.EmergencyContact
	err      error
}

func (s *fakeContactStore) MissedDoseContacts(context.Context, int64) ([]domain.EmergencyContact, error) {
	return s.contacts, s.err
}

type fakeSink struct {
	err      error
	attempts int
	sent     []domain.Notification
}

func (s *fakeSink) Send(_ context.Context, n domain.Notification) error {
	s.attempts++
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

type fakeIntakeStore struct {
	created    []domain.MedicationIntake
	corrected  []domain.MedicationIntake
	createErr  error
	correctErr error
	nextID     int64
}

func (s *fakeIntakeStore) Create(_ context.Context, _ int64, intake *domain.MedicationIntake) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	intake.ID = s.nextID
	s.created = append(s.created, *intake)
	return nil
}

func (s *fakeIntakeStore) Correct(_ context.Context, _ int64, intake domain.MedicationIntake) error {
	if s.correctErr != nil {
		return s.correctErr
	}
	s.corrected = append(s.corrected, intake)
	return nil
}

func (s *fakeIntakeStore) CountsInWindow(context.Context, int64, time.Time, time.Time) (domain.IntakeCounts, error) {
	return domain.IntakeCounts{}, nil
}

func (s *fakeIntakeStore) CountsOnDay(context.Context, int64, time.Time) (domain.IntakeCounts, error) {
	return domain.IntakeCounts{}, nil
}
