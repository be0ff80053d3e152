// Package storage implements every store port on Postgres. Each exported
// mutation runs in a single transaction so partial failures cannot leave a
// notification referencing a nonexistent log.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

// ErrNotFound covers both missing rows and rows the acting user does not
// own; callers must not learn which.
var ErrNotFound = errors.New("not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres is the concrete store behind all persistence ports.
type Postgres struct {
	db *sql.DB
}

var (
	_ ports.ReminderStore     = (*Postgres)(nil)
	_ ports.ReminderLogStore  = (*Postgres)(nil)
	_ ports.NotificationStore = (*Postgres)(nil)
	_ ports.ContactStore      = (*Postgres)(nil)
	_ ports.SubscriptionStore = (*Postgres)(nil)
	_ ports.IntakeStore       = (*Postgres)(nil)
	_ ports.MediaStore        = (*Postgres)(nil)
)

// Open connects, pings and applies the ensure-tables DDL.
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wires an existing sql.DB, schema management left to the caller.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

const reminderDetailColumns = `r.id, r.subscription_id, r.title, r.description, r.reminder_time,
	r.days_of_week, r.frequency_type, r.frequency_value, r.start_date, r.end_date,
	r.is_active, r.event_enabled, r.calendar_event, r.push_enabled, r.email_enabled,
	s.id, s.user_id, s.medication_id, s.custom_name, s.prescribed_dosage,
	s.prescribed_frequency, s.doctor_instructions, s.start_date, s.end_date, s.is_active,
	m.id, m.name, m.generic_name, m.brand_name, m.strength, m.criticality, m.is_active,
	u.id, u.username, u.email, u.first_name, u.last_name, u.is_active`

const reminderDetailJoins = `reminders r
	JOIN subscriptions s ON s.id = r.subscription_id
	JOIN medications m ON m.id = s.medication_id
	JOIN users u ON u.id = s.user_id`

// ActiveReminders returns active, event-enabled reminders of active
// subscriptions with their full context resolved.
func (p *Postgres) ActiveReminders(ctx context.Context) ([]domain.ReminderDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE r.is_active AND r.event_enabled AND s.is_active AND u.is_active`,
		reminderDetailColumns, reminderDetailJoins)

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active reminders: %w", err)
	}
	defer rows.Close()

	var details []domain.ReminderDetail
	for rows.Next() {
		detail, err := scanReminderDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return details, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminderDetail(row rowScanner) (domain.ReminderDetail, error) {
	var (
		d            domain.ReminderDetail
		reminderTime sql.NullString
		rStart       sql.NullTime
		rEnd         sql.NullTime
		sStart       sql.NullTime
		sEnd         sql.NullTime
		criticality  string
	)

	err := row.Scan(
		&d.Reminder.ID, &d.Reminder.SubscriptionID, &d.Reminder.Title, &d.Reminder.Description,
		&reminderTime, &d.Reminder.DaysOfWeek, &d.Reminder.FrequencyType, &d.Reminder.FrequencyValue,
		&rStart, &rEnd, &d.Reminder.IsActive, &d.Reminder.EventEnabled, &d.Reminder.CalendarEvent,
		&d.Reminder.PushEnabled, &d.Reminder.EmailEnabled,
		&d.Subscription.ID, &d.Subscription.UserID, &d.Subscription.MedicationID,
		&d.Subscription.CustomName, &d.Subscription.PrescribedDosage,
		&d.Subscription.PrescribedFrequency, &d.Subscription.DoctorInstructions,
		&sStart, &sEnd, &d.Subscription.IsActive,
		&d.Medication.ID, &d.Medication.Name, &d.Medication.GenericName, &d.Medication.BrandName,
		&d.Medication.Strength, &criticality, &d.Medication.IsActive,
		&d.User.ID, &d.User.Username, &d.User.Email, &d.User.FirstName, &d.User.LastName, &d.User.IsActive,
	)
	if err != nil {
		return domain.ReminderDetail{}, fmt.Errorf("scan reminder detail: %w", err)
	}

	d.Medication.Criticality = domain.Criticality(criticality)
	d.Reminder.ReminderTime = parseTimeOfDay(reminderTime)
	d.Reminder.StartDate = nullableTime(rStart)
	d.Reminder.EndDate = nullableTime(rEnd)
	d.Subscription.StartDate = nullableTime(sStart)
	d.Subscription.EndDate = nullableTime(sEnd)
	return d, nil
}

// parseTimeOfDay reads the "15:04" wire form; malformed values behave like
// an unset time, which the evaluator treats as never due.
func parseTimeOfDay(v sql.NullString) *domain.TimeOfDay {
	if !v.Valid {
		return nil
	}
	parts := strings.SplitN(v.String, ":", 3)
	if len(parts) < 2 {
		return nil
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &h, &m); err != nil {
		return nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return nil
	}
	return &domain.TimeOfDay{Hour: h, Minute: m}
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// CreateWithNotifications inserts the log and its notifications in one
// transaction and returns the notification IDs.
func (p *Postgres) CreateWithNotifications(ctx context.Context, log domain.ReminderLog, notifs []domain.Notification) ([]int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args, err := psql.Insert("reminder_logs").
		Columns("reminder_id", "scheduled_time", "status").
		Values(log.ReminderID, log.ScheduledTime, log.Status).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build log insert: %w", err)
	}

	var logID int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&logID); err != nil {
		return nil, fmt.Errorf("insert reminder log: %w", err)
	}

	ids, err := insertNotifications(ctx, tx, notifs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

func insertNotifications(ctx context.Context, tx *sql.Tx, notifs []domain.Notification) ([]int64, error) {
	ids := make([]int64, 0, len(notifs))
	for _, n := range notifs {
		query, args, err := psql.Insert("notifications").
			Columns("user_id", "reminder_id", "notification_type", "title", "message",
				"delivery_method", "recipient", "scheduled_at", "status").
			Values(n.UserID, n.ReminderID, n.Type, n.Title, n.Message,
				n.Method, n.Recipient, n.ScheduledAt, n.Status).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build notification insert: %w", err)
		}

		var id int64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert notification: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// PendingBefore lists pending logs scheduled before the cutoff with their
// reminder context.
func (p *Postgres) PendingBefore(ctx context.Context, cutoff time.Time) ([]domain.LogDetail, error) {
	query := fmt.Sprintf(`SELECT l.id, l.reminder_id, l.scheduled_time, l.actual_time, l.status, %s
		FROM reminder_logs l JOIN %s ON r.id = l.reminder_id
		WHERE l.status = 'pending' AND l.scheduled_time < $1`,
		reminderDetailColumns, reminderDetailJoins)

	rows, err := p.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query pending logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogDetail
	for rows.Next() {
		entry, err := scanLogDetail(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending logs: %w", err)
	}
	return entries, nil
}

func scanLogDetail(rows *sql.Rows) (domain.LogDetail, error) {
	// The detail columns are scanned through the shared helper; the log
	// columns come first, so we deconstruct the scan manually.
	var (
		entry        domain.LogDetail
		actual       sql.NullTime
		reminderTime sql.NullString
		rStart, rEnd sql.NullTime
		sStart, sEnd sql.NullTime
		criticality  string
	)
	d := &entry.Detail

	err := rows.Scan(
		&entry.Log.ID, &entry.Log.ReminderID, &entry.Log.ScheduledTime, &actual, &entry.Log.Status,
		&d.Reminder.ID, &d.Reminder.SubscriptionID, &d.Reminder.Title, &d.Reminder.Description,
		&reminderTime, &d.Reminder.DaysOfWeek, &d.Reminder.FrequencyType, &d.Reminder.FrequencyValue,
		&rStart, &rEnd, &d.Reminder.IsActive, &d.Reminder.EventEnabled, &d.Reminder.CalendarEvent,
		&d.Reminder.PushEnabled, &d.Reminder.EmailEnabled,
		&d.Subscription.ID, &d.Subscription.UserID, &d.Subscription.MedicationID,
		&d.Subscription.CustomName, &d.Subscription.PrescribedDosage,
		&d.Subscription.PrescribedFrequency, &d.Subscription.DoctorInstructions,
		&sStart, &sEnd, &d.Subscription.IsActive,
		&d.Medication.ID, &d.Medication.Name, &d.Medication.GenericName, &d.Medication.BrandName,
		&d.Medication.Strength, &criticality, &d.Medication.IsActive,
		&d.User.ID, &d.User.Username, &d.User.Email, &d.User.FirstName, &d.User.LastName, &d.User.IsActive,
	)
	if err != nil {
		return domain.LogDetail{}, fmt.Errorf("scan log detail: %w", err)
	}

	entry.Log.ActualTime = nullableTime(actual)
	d.Medication.Criticality = domain.Criticality(criticality)
	d.Reminder.ReminderTime = parseTimeOfDay(reminderTime)
	d.Reminder.StartDate = nullableTime(rStart)
	d.Reminder.EndDate = nullableTime(rEnd)
	d.Subscription.StartDate = nullableTime(sStart)
	d.Subscription.EndDate = nullableTime(sEnd)
	return entry, nil
}

// MarkMissedWithAlerts transitions one pending log to missed and inserts the
// alert notifications atomically. A log already transitioned by a competing
// sweep yields no notifications.
func (p *Postgres) MarkMissedWithAlerts(ctx context.Context, logID int64, notifs []domain.Notification) ([]int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args, err := psql.Update("reminder_logs").
		Set("status", domain.LogMissed).
		Where(sq.Eq{"id": logID, "status": domain.LogPending}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build missed update: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mark log missed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	ids, err := insertNotifications(ctx, tx, notifs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// Acknowledge records the dose being taken. Terminal states never revert.
func (p *Postgres) Acknowledge(ctx context.Context, logID int64, at time.Time) error {
	query, args, err := psql.Update("reminder_logs").
		Set("status", domain.LogAcknowledged).
		Set("actual_time", at).
		Where(sq.Eq{"id": logID}).
		Where(sq.Eq{"status": []domain.LogStatus{domain.LogPending, domain.LogSent}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build acknowledge: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("acknowledge log: %w", err)
	}
	return nil
}

// DeleteBefore purges reminder logs created before the cutoff.
func (p *Postgres) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete("reminder_logs").
		Where(sq.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build log purge: %w", err)
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge logs: %w", err)
	}
	return res.RowsAffected()
}

// PendingInWindow implements the dedup guard with a time-range query.
func (p *Postgres) PendingInWindow(ctx context.Context, userID, reminderID int64, from, to time.Time) (bool, error) {
	query, args, err := psql.Select("1").
		From("notifications").
		Where(sq.Eq{"user_id": userID, "reminder_id": reminderID, "status": domain.NotificationPending}).
		Where(sq.GtOrEq{"scheduled_at": from}).
		Where(sq.LtOrEq{"scheduled_at": to}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build dedup query: %w", err)
	}

	var one int
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup query: %w", err)
	}
	return true, nil
}

// Get loads one notification.
func (p *Postgres) Get(ctx context.Context, id int64) (domain.Notification, error) {
	query, args, err := psql.Select("id", "user_id", "reminder_id", "notification_type",
		"title", "message", "delivery_method", "recipient", "scheduled_at", "sent_at",
		"read_at", "status", "retry_count", "error_message", "created_at").
		From("notifications").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Notification{}, fmt.Errorf("build notification query: %w", err)
	}

	var (
		n          domain.Notification
		reminderID sql.NullInt64
		sentAt     sql.NullTime
		readAt     sql.NullTime
	)
	err = p.db.QueryRowContext(ctx, query, args...).Scan(
		&n.ID, &n.UserID, &reminderID, &n.Type, &n.Title, &n.Message, &n.Method,
		&n.Recipient, &n.ScheduledAt, &sentAt, &readAt, &n.Status, &n.RetryCount,
		&n.ErrorMessage, &n.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Notification{}, ErrNotFound
	}
	if err != nil {
		return domain.Notification{}, fmt.Errorf("load notification: %w", err)
	}

	if reminderID.Valid {
		n.ReminderID = &reminderID.Int64
	}
	n.SentAt = nullableTime(sentAt)
	n.ReadAt = nullableTime(readAt)
	return n, nil
}

// MarkSent completes a successful delivery.
func (p *Postgres) MarkSent(ctx context.Context, id int64, at time.Time) error {
	query, args, err := psql.Update("notifications").
		Set("status", domain.NotificationSent).
		Set("sent_at", at).
		Where(sq.Eq{"id": id, "status": domain.NotificationPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark sent: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// RecordRetry bumps the retry counter and keeps the notification pending.
func (p *Postgres) RecordRetry(ctx context.Context, id int64, deliveryErr string) error {
	query, args, err := psql.Update("notifications").
		Set("retry_count", sq.Expr("retry_count + 1")).
		Set("error_message", deliveryErr).
		Where(sq.Eq{"id": id, "status": domain.NotificationPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record retry: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record retry: %w", err)
	}
	return nil
}

// MarkFailed ends the retry cycle.
func (p *Postgres) MarkFailed(ctx context.Context, id int64, deliveryErr string) error {
	query, args, err := psql.Update("notifications").
		Set("status", domain.NotificationFailed).
		Set("error_message", deliveryErr).
		Where(sq.Eq{"id": id, "status": domain.NotificationPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark failed: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// MarkRead records user acknowledgment; scoped by user so acting on another
// user's notification surfaces as ErrNotFound before any mutation.
func (p *Postgres) MarkRead(ctx context.Context, userID, id int64, at time.Time) error {
	query, args, err := psql.Update("notifications").
		Set("status", domain.NotificationRead).
		Set("read_at", at).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark read: %w", err)
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser returns the user's notifications newest first.
func (p *Postgres) ListForUser(ctx context.Context, userID int64, status domain.NotificationStatus, limit int) ([]domain.Notification, error) {
	builder := psql.Select("id", "user_id", "reminder_id", "notification_type",
		"title", "message", "delivery_method", "recipient", "scheduled_at", "sent_at",
		"read_at", "status", "retry_count", "error_message", "created_at").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build notification list: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var (
			n          domain.Notification
			reminderID sql.NullInt64
			sentAt     sql.NullTime
			readAt     sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.UserID, &reminderID, &n.Type, &n.Title, &n.Message,
			&n.Method, &n.Recipient, &n.ScheduledAt, &sentAt, &readAt, &n.Status,
			&n.RetryCount, &n.ErrorMessage, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if reminderID.Valid {
			n.ReminderID = &reminderID.Int64
		}
		n.SentAt = nullableTime(sentAt)
		n.ReadAt = nullableTime(readAt)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// DeleteReadBefore purges read notifications created before the cutoff.
func (p *Postgres) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete("notifications").
		Where(sq.Eq{"status": domain.NotificationRead}).
		Where(sq.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build notification purge: %w", err)
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return res.RowsAffected()
}

// MissedDoseContacts lists emergency contacts subscribed to missed-dose alerts.
func (p *Postgres) MissedDoseContacts(ctx context.Context, userID int64) ([]domain.EmergencyContact, error) {
	query, args, err := psql.Select("id", "user_id", "name", "relationship", "phone",
		"email", "is_primary", "notify_missed_doses").
		From("emergency_contacts").
		Where(sq.Eq{"user_id": userID, "notify_missed_doses": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build contacts query: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.EmergencyContact
	for rows.Next() {
		var c domain.EmergencyContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Relationship, &c.Phone,
			&c.Email, &c.IsPrimary, &c.NotifyMissedDoses); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// ActiveForUser lists the user's active subscriptions with medications.
func (p *Postgres) ActiveForUser(ctx context.Context, userID int64) ([]domain.SubscriptionDetail, error) {
	query, args, err := psql.Select("s.id", "s.user_id", "s.medication_id", "s.custom_name",
		"s.prescribed_dosage", "s.prescribed_frequency", "s.doctor_instructions",
		"s.start_date", "s.end_date", "s.is_active",
		"m.id", "m.name", "m.generic_name", "m.brand_name", "m.strength", "m.criticality", "m.is_active").
		From("subscriptions s").
		Join("medications m ON m.id = s.medication_id").
		Where(sq.Eq{"s.user_id": userID, "s.is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscriptions query: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var details []domain.SubscriptionDetail
	for rows.Next() {
		var (
			d            domain.SubscriptionDetail
			sStart, sEnd sql.NullTime
			criticality  string
		)
		err := rows.Scan(&d.Subscription.ID, &d.Subscription.UserID, &d.Subscription.MedicationID,
			&d.Subscription.CustomName, &d.Subscription.PrescribedDosage,
			&d.Subscription.PrescribedFrequency, &d.Subscription.DoctorInstructions,
			&sStart, &sEnd, &d.Subscription.IsActive,
			&d.Medication.ID, &d.Medication.Name, &d.Medication.GenericName, &d.Medication.BrandName,
			&d.Medication.Strength, &criticality, &d.Medication.IsActive)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		d.Medication.Criticality = domain.Criticality(criticality)
		d.Subscription.StartDate = nullableTime(sStart)
		d.Subscription.EndDate = nullableTime(sEnd)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return details, nil
}

// Create inserts an intake after verifying the subscription belongs to the
// acting user, in one transaction.
func (p *Postgres) Create(ctx context.Context, userID int64, intake *domain.MedicationIntake) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var owner int64
	query, args, err := psql.Select("user_id").
		From("subscriptions").
		Where(sq.Eq{"id": intake.SubscriptionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build ownership query: %w", err)
	}
	err = tx.QueryRowContext(ctx, query, args...).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}

	query, args, err = psql.Insert("medication_intakes").
		Columns("subscription_id", "reminder_log_id", "status_at", "dosage_taken", "status", "notes").
		Values(intake.SubscriptionID, intake.ReminderLogID, intake.StatusAt,
			intake.DosageTaken, intake.Status, intake.Notes).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build intake insert: %w", err)
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&intake.ID); err != nil {
		return fmt.Errorf("insert intake: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Correct edits an intake in place, scoped to the owning user.
func (p *Postgres) Correct(ctx context.Context, userID int64, intake domain.MedicationIntake) error {
	query, args, err := psql.Update("medication_intakes i").
		Set("status_at", intake.StatusAt).
		Set("dosage_taken", intake.DosageTaken).
		Set("status", intake.Status).
		Set("notes", intake.Notes).
		Where("i.id = ? AND EXISTS (SELECT 1 FROM subscriptions s WHERE s.id = i.subscription_id AND s.user_id = ?)",
			intake.ID, userID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build intake update: %w", err)
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update intake: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountsInWindow tallies intakes by status over [from, to] by creation time.
func (p *Postgres) CountsInWindow(ctx context.Context, subscriptionID int64, from, to time.Time) (domain.IntakeCounts, error) {
	query, args, err := psql.Select("status", "COUNT(*)").
		From("medication_intakes").
		Where(sq.Eq{"subscription_id": subscriptionID}).
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.LtOrEq{"created_at": to}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return domain.IntakeCounts{}, fmt.Errorf("build intake counts: %w", err)
	}
	return p.scanCounts(ctx, query, args)
}

// CountsOnDay tallies intakes by status for one calendar day by dose time.
func (p *Postgres) CountsOnDay(ctx context.Context, subscriptionID int64, day time.Time) (domain.IntakeCounts, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	query, args, err := psql.Select("status", "COUNT(*)").
		From("medication_intakes").
		Where(sq.Eq{"subscription_id": subscriptionID}).
		Where(sq.GtOrEq{"status_at": start}).
		Where(sq.Lt{"status_at": end}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return domain.IntakeCounts{}, fmt.Errorf("build day counts: %w", err)
	}
	return p.scanCounts(ctx, query, args)
}

func (p *Postgres) scanCounts(ctx context.Context, query string, args []any) (domain.IntakeCounts, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.IntakeCounts{}, fmt.Errorf("query intake counts: %w", err)
	}
	defer rows.Close()

	var counts domain.IntakeCounts
	for rows.Next() {
		var status domain.IntakeStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return domain.IntakeCounts{}, fmt.Errorf("scan intake count: %w", err)
		}
		switch status {
		case domain.IntakeTaken:
			counts.Taken = count
		case domain.IntakeMissed:
			counts.Missed = count
		case domain.IntakeSkipped:
			counts.Skipped = count
		}
	}
	if err := rows.Err(); err != nil {
		return domain.IntakeCounts{}, fmt.Errorf("iterate intake counts: %w", err)
	}
	return counts, nil
}

// CreateMediaFile records one uploaded file.
func (p *Postgres) CreateMediaFile(ctx context.Context, file *domain.MediaFile) error {
	query, args, err := psql.Insert("media_files").
		Columns("user_id", "original_name", "file_path", "file_type", "mime_type",
			"file_size", "is_processed", "analysis_result").
		Values(file.UserID, file.OriginalName, file.FilePath, file.FileType, file.MimeType,
			file.FileSize, file.IsProcessed, file.AnalysisResult).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build media insert: %w", err)
	}
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&file.ID); err != nil {
		return fmt.Errorf("insert media file: %w", err)
	}
	return nil
}
