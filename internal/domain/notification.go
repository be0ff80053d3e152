package domain

import "time"

// DeliveryMethod names the channel a notification goes out on.
type DeliveryMethod string

const (
	DeliveryPush  DeliveryMethod = "push"
	DeliveryEmail DeliveryMethod = "email"
	DeliverySMS   DeliveryMethod = "sms"
)

// NotificationStatus is the delivery state machine: pending may retry back
// into pending a bounded number of times before failed; sent may become read
// on user acknowledgment. Failed and read are terminal.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationRead    NotificationStatus = "read"
)

// NotificationType classifies why the notification exists.
type NotificationType string

const (
	TypeMedicationReminder NotificationType = "medication_reminder"
	TypeMissedDose         NotificationType = "missed_dose"
	TypeEmergencyAlert     NotificationType = "emergency_alert"
)

// MaxDeliveryRetries bounds how often a failed delivery is re-attempted
// before the notification is marked failed for good.
const MaxDeliveryRetries = 3

// Notification is a single delivery attempt record. It always belongs to a
// user and optionally references the reminder that produced it. Recipient
// overrides the destination for emergency alerts addressed to a contact
// rather than the user.
type Notification struct {
	ID           int64
	UserID       int64
	ReminderID   *int64
	Type         NotificationType
	Title        string
	Message      string
	Method       DeliveryMethod
	Recipient    string
	ScheduledAt  time.Time
	SentAt       *time.Time
	ReadAt       *time.Time
	Status       NotificationStatus
	RetryCount   int
	ErrorMessage string
	CreatedAt    time.Time
}
