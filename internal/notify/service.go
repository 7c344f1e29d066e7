// Package notify creates user notifications, including the overdue
// notifications raised for reminders and renewals.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hmanprod/fleetmada/internal/clock"
	"github.com/hmanprod/fleetmada/internal/db"
	"github.com/hmanprod/fleetmada/internal/dedup"
	"github.com/hmanprod/fleetmada/internal/metrics"
	"github.com/hmanprod/fleetmada/internal/models"
	"github.com/hmanprod/fleetmada/internal/reminders"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidNotification is returned for notifications without user or
	// with an unknown type.
	ErrInvalidNotification = errors.New("invalid notification")
	// ErrPartialFailure wraps the per-record errors of an overdue check that
	// otherwise completed.
	ErrPartialFailure = errors.New("overdue check finished with failures")
)

const DefaultCleanupDays = 30

// DedupWindow is how long an overdue notification blocks an identical one.
const DedupWindow = 24 * time.Hour

const dedupDateLayout = "2006-01-02"

// Store is the persistence surface of the notification service.
type Store interface {
	db.VehicleCollection
	db.ReminderCollection
	db.RenewalCollection
	db.NotificationCollection
}

// Publisher pushes created notifications to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

// Service manages notifications. Overdue checks claim a structured key in
// the ledger before writing so that a subject is notified at most once per
// DedupWindow.
type Service struct {
	store     Store
	ledger    dedup.Ledger
	publisher Publisher
	clock     clock.Clock
	log       log.FieldLogger
}

// NewService creates a notification service. A nil ledger keeps claims in
// memory, a nil clock uses the system clock and a nil logger the logrus
// standard logger.
func NewService(store Store, ledger dedup.Ledger, clk clock.Clock, logger log.FieldLogger) *Service {
	if ledger == nil {
		ledger = dedup.NewMemoryLedger()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		store:  store,
		ledger: ledger,
		clock:  clk,
		log:    logger.WithField("component", "notification_service"),
	}
}

// SetPublisher attaches a publisher. Publishing failures are logged and do
// not fail notification creation.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// CreateNotification stores n as unread and publishes it.
func (s *Service) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrInvalidNotification)
	}
	if !models.IsValidNotificationType(n.Type) {
		return fmt.Errorf("%w: type %q", ErrInvalidNotification, n.Type)
	}
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock.Now()
	}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	s.log.WithFields(log.Fields{"notification_id": n.ID, "user_id": n.UserID, "type": n.Type}).Debug("Notification created")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, n); err != nil {
			s.log.WithError(err).WithField("notification_id", n.ID).Warn("Failed to publish notification")
		}
	}
	return nil
}

func (s *Service) send(ctx context.Context, userID, title, message string, typ models.NotificationType, link string) (*models.Notification, error) {
	n := &models.Notification{UserID: userID, Title: title, Message: message, Type: typ, Link: link}
	if err := s.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// SendReminderDue notifies a user that a service is due in days days.
func (s *Service) SendReminderDue(ctx context.Context, userID, vehicleName, task string, due time.Time, days int) (*models.Notification, error) {
	title, message := reminderDueText(vehicleName, task, due, days)
	return s.send(ctx, userID, title, message, models.NotificationReminderDue, ServiceRemindersLink)
}

// SendReminderOverdue notifies a user that a service is days days late.
func (s *Service) SendReminderOverdue(ctx context.Context, userID, vehicleName, task string, due time.Time, days int) (*models.Notification, error) {
	title, message := reminderOverdueText(vehicleName, task, due, days)
	return s.send(ctx, userID, title, message, models.NotificationReminderOverdue, ServiceRemindersLink)
}

// SendRenewalDue notifies a user that a renewal is due in days days.
func (s *Service) SendRenewalDue(ctx context.Context, userID, vehicleName string, t models.RenewalType, due time.Time, days int) (*models.Notification, error) {
	title, message := renewalDueText(vehicleName, t, due, days)
	return s.send(ctx, userID, title, message, models.NotificationReminderDue, VehicleRenewalsLink)
}

// SendRenewalOverdue notifies a user that a renewal is days days late.
func (s *Service) SendRenewalOverdue(ctx context.Context, userID, vehicleName string, t models.RenewalType, due time.Time, days int) (*models.Notification, error) {
	title, message := renewalOverdueText(vehicleName, t, due, days)
	return s.send(ctx, userID, title, message, models.NotificationReminderOverdue, VehicleRenewalsLink)
}

// ReminderDedupKey is the structured key of an overdue reminder
// notification. The task ID is used when present, else the task name.
func ReminderDedupKey(userID string, r models.ServiceReminder) string {
	subject := r.ServiceTaskID
	if subject == "" {
		subject = r.Task
	}
	var due string
	if r.NextDue != nil {
		due = r.NextDue.UTC().Format(dedupDateLayout)
	}
	return dedup.Key(userID, string(models.NotificationReminderOverdue), r.VehicleID, subject, due)
}

// RenewalDedupKey is the structured key of an overdue renewal notification.
func RenewalDedupKey(userID string, r models.VehicleRenewal) string {
	return dedup.Key(userID, string(models.NotificationReminderOverdue), r.VehicleID,
		string(r.Type), r.DueDate.UTC().Format(dedupDateLayout))
}

// CheckOverdueReminders creates one REMINDER_OVERDUE notification per open
// reminder whose next due date has passed, unless the same reminder was
// notified within DedupWindow. It returns the number of notifications
// created. A failing reminder does not stop the others.
func (s *Service) CheckOverdueReminders(ctx context.Context) (int, error) {
	now := s.clock.Now()
	overdue, err := s.store.FindOverdueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue reminders: %w", err)
	}

	owners := newOwnerCache(s.store)
	var (
		created int
		errs    []error
	)
	for _, r := range overdue {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		entry := s.log.WithFields(log.Fields{"reminder_id": r.ID, "vehicle_id": r.VehicleID})
		if strings.TrimSpace(r.Task) == "" || r.NextDue == nil {
			entry.Debug("Skipping reminder without task or due date")
			continue
		}
		vehicle, err := owners.get(ctx, r.VehicleID)
		if errors.Is(err, db.ErrNotFound) {
			entry.Warn("Skipping reminder of unknown vehicle")
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder %s: %w", r.ID, err))
			continue
		}
		if vehicle.UserID == "" {
			entry.Debug("Skipping reminder of vehicle without owner")
			continue
		}

		title, message := reminderOverdueText(vehicle.Name, r.Task, *r.NextDue, reminders.DaysOverdue(now, *r.NextDue))
		n := &models.Notification{
			UserID:  vehicle.UserID,
			Title:   title,
			Message: message,
			Type:    models.NotificationReminderOverdue,
			Link:    ServiceRemindersLink,
		}
		ok, err := s.notifyOnce(ctx, ReminderDedupKey(vehicle.UserID, r), "reminder", now, n)
		if err != nil {
			entry.WithError(err).Error("Failed to notify overdue reminder")
			errs = append(errs, fmt.Errorf("reminder %s: %w", r.ID, err))
			continue
		}
		if ok {
			created++
		}
	}

	s.log.WithField("created", created).Info("Overdue reminder notifications created")
	return created, partial(errs)
}

// CheckOverdueRenewals is CheckOverdueReminders for DUE and OVERDUE renewals.
func (s *Service) CheckOverdueRenewals(ctx context.Context) (int, error) {
	now := s.clock.Now()
	overdue, err := s.store.FindOverdueRenewals(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue renewals: %w", err)
	}

	owners := newOwnerCache(s.store)
	var (
		created int
		errs    []error
	)
	for _, r := range overdue {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		entry := s.log.WithFields(log.Fields{"renewal_id": r.ID, "vehicle_id": r.VehicleID})
		vehicle, err := owners.get(ctx, r.VehicleID)
		if errors.Is(err, db.ErrNotFound) {
			entry.Warn("Skipping renewal of unknown vehicle")
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("renewal %s: %w", r.ID, err))
			continue
		}
		if vehicle.UserID == "" {
			entry.Debug("Skipping renewal of vehicle without owner")
			continue
		}

		title, message := renewalOverdueText(vehicle.Name, r.Type, r.DueDate, reminders.DaysOverdue(now, r.DueDate))
		n := &models.Notification{
			UserID:  vehicle.UserID,
			Title:   title,
			Message: message,
			Type:    models.NotificationReminderOverdue,
			Link:    VehicleRenewalsLink,
		}
		ok, err := s.notifyOnce(ctx, RenewalDedupKey(vehicle.UserID, r), "renewal", now, n)
		if err != nil {
			entry.WithError(err).Error("Failed to notify overdue renewal")
			errs = append(errs, fmt.Errorf("renewal %s: %w", r.ID, err))
			continue
		}
		if ok {
			created++
		}
	}

	s.log.WithField("created", created).Info("Overdue renewal notifications created")
	return created, partial(errs)
}

// notifyOnce claims key and creates n. The claim is released when the
// notification cannot be written so that the next run retries.
func (s *Service) notifyOnce(ctx context.Context, key, subject string, now time.Time, n *models.Notification) (bool, error) {
	claimed, err := s.ledger.Claim(ctx, key, now, DedupWindow)
	if err != nil {
		return false, fmt.Errorf("claim dedup key: %w", err)
	}
	if !claimed {
		metrics.NotificationsSuppressed.WithLabelValues(subject).Inc()
		s.log.WithField("dedup_key", key).Debug("Notification suppressed by live claim")
		return false, nil
	}
	n.DedupKey = key
	if err := s.CreateNotification(ctx, n); err != nil {
		if rerr := s.ledger.Release(ctx, key); rerr != nil {
			s.log.WithError(rerr).WithField("dedup_key", key).Warn("Failed to release dedup key")
		}
		return false, err
	}
	return true, nil
}

func partial(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPartialFailure, errors.Join(errs...))
}

// ownerCache memoises vehicle lookups within one check.
type ownerCache struct {
	store    db.VehicleCollection
	vehicles map[string]*models.Vehicle
}

func newOwnerCache(store db.VehicleCollection) *ownerCache {
	return &ownerCache{store: store, vehicles: make(map[string]*models.Vehicle)}
}

func (c *ownerCache) get(ctx context.Context, id string) (*models.Vehicle, error) {
	if v, ok := c.vehicles[id]; ok {
		return v, nil
	}
	v, err := c.store.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.vehicles[id] = v
	return v, nil
}

// List returns the notifications of a user, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.store.FindNotifications(ctx, userID, unreadOnly)
}

// MarkAsRead marks one notification of userID as read. It returns
// db.ErrNotFound when the notification does not belong to userID.
func (s *Service) MarkAsRead(ctx context.Context, id, userID string) error {
	if err := s.store.MarkNotificationRead(ctx, id, userID); err != nil {
		return fmt.Errorf("mark notification %s as read: %w", id, err)
	}
	s.log.WithFields(log.Fields{"notification_id": id, "user_id": userID}).Debug("Notification marked as read")
	return nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications of %s as read: %w", userID, err)
	}
	s.log.WithFields(log.Fields{"user_id": userID, "count": n}).Info("Notifications marked as read")
	return n, nil
}

func (s *Service) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications of %s: %w", userID, err)
	}
	return n, nil
}

// CleanupOldNotifications deletes read notifications created more than
// daysOld days ago. A non-positive daysOld uses DefaultCleanupDays.
func (s *Service) CleanupOldNotifications(ctx context.Context, daysOld int) (int64, error) {
	if daysOld <= 0 {
		daysOld = DefaultCleanupDays
	}
	cutoff := s.clock.Now().Add(-time.Duration(daysOld) * 24 * time.Hour)
	n, err := s.store.DeleteReadNotifications(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete read notifications: %w", err)
	}
	metrics.RecordsDeleted.WithLabelValues("notification").Add(float64(n))
	s.log.WithFields(log.Fields{"deleted": n, "cutoff": cutoff}).Info("Old notifications cleaned up")
	return n, nil
}
