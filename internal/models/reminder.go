package models

import "time"

// ReminderStatus is the lifecycle state of a service reminder.
type ReminderStatus string

const (
	ReminderActive    ReminderStatus = "ACTIVE"
	ReminderOverdue   ReminderStatus = "OVERDUE"
	ReminderCompleted ReminderStatus = "COMPLETED"
)

// ReminderKind tells what drives a reminder's due point.
type ReminderKind string

const (
	ReminderKindDate  ReminderKind = "date"
	ReminderKindMeter ReminderKind = "meter"
	ReminderKindBoth  ReminderKind = "both"
)

// OpenReminderStatuses are the statuses a reminder can be promoted from or notified for.
var OpenReminderStatuses = []ReminderStatus{ReminderActive, ReminderOverdue}

// IsValidReminderStatus checks if a reminder status is valid
func IsValidReminderStatus(s ReminderStatus) bool {
	switch s {
	case ReminderActive, ReminderOverdue, ReminderCompleted:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the status still needs attention.
func (s ReminderStatus) IsOpen() bool {
	return s == ReminderActive || s == ReminderOverdue
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle
// monotonic: ACTIVE -> OVERDUE -> COMPLETED, ACTIVE -> COMPLETED.
func (s ReminderStatus) CanAdvanceTo(next ReminderStatus) bool {
	switch s {
	case ReminderActive:
		return next == ReminderOverdue || next == ReminderCompleted
	case ReminderOverdue:
		return next == ReminderCompleted
	default:
		return false
	}
}

// ServiceReminder is a projected maintenance obligation for a vehicle.
type ServiceReminder struct {
	ID               string         `json:"id" bson:"_id,omitempty"`
	VehicleID        string         `json:"vehicle_id" bson:"vehicle_id"`
	ServiceTaskID    string         `json:"service_task_id,omitempty" bson:"service_task_id,omitempty"`
	Task             string         `json:"task" bson:"task"`
	Status           ReminderStatus `json:"status" bson:"status"`
	Kind             ReminderKind   `json:"type" bson:"type"`
	NextDue          *time.Time     `json:"next_due,omitempty" bson:"next_due,omitempty"`
	IntervalMonths   int            `json:"interval_months" bson:"interval_months"`
	LastServiceDate  *time.Time     `json:"last_service_date,omitempty" bson:"last_service_date,omitempty"`
	LastServiceMeter *float64       `json:"last_service_meter,omitempty" bson:"last_service_meter,omitempty"`
	// OpenKey is set while the reminder is open and backs the
	// one-open-reminder-per-(vehicle, task) unique index.
	OpenKey   string    `json:"-" bson:"open_key,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ReminderOpenKey returns the uniqueness key of an open reminder, or "" when
// the reminder is not linked to a service task.
func ReminderOpenKey(vehicleID, serviceTaskID string) string {
	if serviceTaskID == "" {
		return ""
	}
	return vehicleID + "|" + serviceTaskID
}
