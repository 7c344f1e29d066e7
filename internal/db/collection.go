package db

import (
	"context"
	"errors"
	"time"

	"github.com/hmanprod/fleetmada/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("an open record with the same key already exists")
	ErrNilCollection = errors.New("mongo collection is nil")
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
}

// ServiceCollection defines the interface for service history and programs.
type ServiceCollection interface {
	InsertServiceEntry(ctx context.Context, entry *models.ServiceEntry) error
	// FindRecentServiceEntries returns at most limit entries, most recent first.
	FindRecentServiceEntries(ctx context.Context, vehicleID string, limit int) ([]models.ServiceEntry, error)
	InsertServiceProgram(ctx context.Context, program *models.ServiceProgram) error
	FindActiveServicePrograms(ctx context.Context) ([]models.ServiceProgram, error)
}

// ReminderCollection defines the interface for service reminder operations.
type ReminderCollection interface {
	// InsertReminder returns ErrDuplicate when an open reminder with the same
	// OpenKey already exists.
	InsertReminder(ctx context.Context, reminder *models.ServiceReminder) error
	// HasOpenTaskReminder reports whether the vehicle has any open reminder
	// linked to a service task.
	HasOpenTaskReminder(ctx context.Context, vehicleID string) (bool, error)
	HasOpenReminderForTask(ctx context.Context, vehicleID, serviceTaskID string) (bool, error)
	// FindOverdueReminders returns open reminders whose next due date is before now.
	FindOverdueReminders(ctx context.Context, now time.Time) ([]models.ServiceReminder, error)
	MarkOverdueReminders(ctx context.Context, now time.Time) (int64, error)
	CompleteReminder(ctx context.Context, id string, now time.Time) error
	DeleteCompletedReminders(ctx context.Context, before time.Time) (int64, error)
}

// RenewalCollection defines the interface for vehicle renewal operations.
type RenewalCollection interface {
	// InsertRenewal returns ErrDuplicate when an open renewal of the same
	// type already exists for the vehicle.
	InsertRenewal(ctx context.Context, renewal *models.VehicleRenewal) error
	HasOpenRenewal(ctx context.Context, vehicleID string, renewalType models.RenewalType) (bool, error)
	FindOverdueRenewals(ctx context.Context, now time.Time) ([]models.VehicleRenewal, error)
	MarkOverdueRenewals(ctx context.Context, now time.Time) (int64, error)
	CompleteRenewal(ctx context.Context, id string, now time.Time) error
	DeleteCompletedRenewals(ctx context.Context, before time.Time) (int64, error)
}

// NotificationCollection defines the interface for notification operations.
type NotificationCollection interface {
	InsertNotification(ctx context.Context, notification *models.Notification) error
	FindNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	// MarkNotificationRead returns ErrNotFound when the notification does not
	// exist or belongs to another user.
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
	DeleteReadNotifications(ctx context.Context, before time.Time) (int64, error)
}

// Store is the full persistence surface used by the reminder jobs.
type Store interface {
	VehicleCollection
	ServiceCollection
	ReminderCollection
	RenewalCollection
	NotificationCollection
}
