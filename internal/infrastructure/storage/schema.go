package storage

// ensure-tables DDL, applied at startup. Proper migrations are out of scope;
// the statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(80) UNIQUE NOT NULL,
		email VARCHAR(120) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS medications (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		generic_name VARCHAR(200) NOT NULL DEFAULT '',
		brand_name VARCHAR(200) NOT NULL DEFAULT '',
		strength VARCHAR(100) NOT NULL DEFAULT '',
		criticality VARCHAR(10) NOT NULL DEFAULT 'medium',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		medication_id BIGINT NOT NULL REFERENCES medications(id),
		custom_name VARCHAR(200) NOT NULL DEFAULT '',
		prescribed_dosage VARCHAR(100) NOT NULL DEFAULT '',
		prescribed_frequency VARCHAR(100) NOT NULL DEFAULT '',
		doctor_instructions TEXT NOT NULL DEFAULT '',
		start_date DATE,
		end_date DATE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id BIGSERIAL PRIMARY KEY,
		subscription_id BIGINT NOT NULL REFERENCES subscriptions(id),
		title VARCHAR(200) NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		reminder_time VARCHAR(5),
		days_of_week VARCHAR(100) NOT NULL DEFAULT '',
		frequency_type VARCHAR(10) NOT NULL DEFAULT 'daily',
		frequency_value INT NOT NULL DEFAULT 0,
		start_date DATE,
		end_date DATE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		event_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		calendar_event BOOLEAN NOT NULL DEFAULT FALSE,
		push_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		email_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS reminder_logs (
		id BIGSERIAL PRIMARY KEY,
		reminder_id BIGINT NOT NULL REFERENCES reminders(id),
		scheduled_time TIMESTAMPTZ NOT NULL,
		actual_time TIMESTAMPTZ,
		status VARCHAR(15) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reminder_logs_pending
		ON reminder_logs (scheduled_time) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		reminder_id BIGINT REFERENCES reminders(id),
		notification_type VARCHAR(50) NOT NULL,
		title VARCHAR(200) NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		delivery_method VARCHAR(10) NOT NULL,
		recipient VARCHAR(200) NOT NULL DEFAULT '',
		scheduled_at TIMESTAMPTZ NOT NULL,
		sent_at TIMESTAMPTZ,
		read_at TIMESTAMPTZ,
		status VARCHAR(10) NOT NULL DEFAULT 'pending',
		retry_count INT NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_dedup
		ON notifications (user_id, reminder_id, scheduled_at) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS emergency_contacts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		name VARCHAR(200) NOT NULL,
		relationship VARCHAR(100) NOT NULL DEFAULT '',
		phone VARCHAR(20) NOT NULL DEFAULT '',
		email VARCHAR(120) NOT NULL DEFAULT '',
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		notify_missed_doses BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS medication_intakes (
		id BIGSERIAL PRIMARY KEY,
		subscription_id BIGINT NOT NULL REFERENCES subscriptions(id),
		reminder_log_id BIGINT REFERENCES reminder_logs(id),
		status_at TIMESTAMPTZ NOT NULL,
		dosage_taken VARCHAR(100) NOT NULL DEFAULT '',
		status VARCHAR(10) NOT NULL DEFAULT 'taken',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS media_files (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		original_name VARCHAR(255) NOT NULL,
		file_path TEXT NOT NULL,
		file_type VARCHAR(50) NOT NULL DEFAULT '',
		mime_type VARCHAR(100) NOT NULL DEFAULT '',
		file_size BIGINT NOT NULL DEFAULT 0,
		is_processed BOOLEAN NOT NULL DEFAULT FALSE,
		analysis_result JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
