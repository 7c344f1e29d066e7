package models

import "time"

// NotificationType categorises a notification for the UI.
type NotificationType string

const (
	NotificationReminderDue     NotificationType = "REMINDER_DUE"
	NotificationReminderOverdue NotificationType = "REMINDER_OVERDUE"
	NotificationAssignment      NotificationType = "ASSIGNMENT"
	NotificationComment         NotificationType = "COMMENT"
	NotificationSystem          NotificationType = "SYSTEM"
)

// IsValidNotificationType checks if a notification type is valid
func IsValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationReminderDue, NotificationReminderOverdue, NotificationAssignment,
		NotificationComment, NotificationSystem:
		return true
	default:
		return false
	}
}

// Notification is a message addressed to a single user.
type Notification struct {
	ID        string           `json:"id" bson:"_id,omitempty"`
	UserID    string           `json:"user_id" bson:"user_id"`
	Title     string           `json:"title" bson:"title"`
	Message   string           `json:"message" bson:"message"`
	Type      NotificationType `json:"type" bson:"type"`
	Link      string           `json:"link,omitempty" bson:"link,omitempty"`
	Read      bool             `json:"read" bson:"read"`
	DedupKey  string           `json:"dedup_key,omitempty" bson:"dedup_key,omitempty"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
}
