package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hmanprod/fleetmada/internal/models"
)

// MemoryStore is an in-process Store. It enforces the same open-key
// uniqueness as the Mongo indexes and is safe for concurrent use.
type MemoryStore struct {
	mu            sync.Mutex
	vehicles      []models.Vehicle
	entries       []models.ServiceEntry
	programs      []models.ServiceProgram
	reminders     []models.ServiceReminder
	renewals      []models.VehicleRenewal
	notifications []models.Notification
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertVehicle stores a vehicle, assigning an ID when empty.
func (m *MemoryStore) InsertVehicle(_ context.Context, vehicle *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vehicle.ID == "" {
		vehicle.ID = newID()
	}
	for _, v := range m.vehicles {
		if v.ID == vehicle.ID {
			return fmt.Errorf("vehicle %s: %w", vehicle.ID, ErrDuplicate)
		}
	}
	m.vehicles = append(m.vehicles, *vehicle)
	return nil
}

func (m *MemoryStore) FindVehicles(_ context.Context) ([]models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Vehicle(nil), m.vehicles...), nil
}

func (m *MemoryStore) FindVehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.ID == id {
			v := v
			return &v, nil
		}
	}
	return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) InsertServiceEntry(_ context.Context, entry *models.ServiceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		entry.ID = newID()
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MemoryStore) FindRecentServiceEntries(_ context.Context, vehicleID string, limit int) ([]models.ServiceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ServiceEntry
	for _, e := range m.entries {
		if e.VehicleID == vehicleID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) InsertServiceProgram(_ context.Context, program *models.ServiceProgram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if program.ID == "" {
		program.ID = newID()
	}
	m.programs = append(m.programs, *program)
	return nil
}

func (m *MemoryStore) FindActiveServicePrograms(_ context.Context) ([]models.ServiceProgram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ServiceProgram
	for _, p := range m.programs {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) InsertReminder(_ context.Context, reminder *models.ServiceReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reminder.ID == "" {
		reminder.ID = newID()
	}
	reminder.OpenKey = ""
	if reminder.Status.IsOpen() {
		reminder.OpenKey = models.ReminderOpenKey(reminder.VehicleID, reminder.ServiceTaskID)
	}
	if reminder.OpenKey != "" {
		for _, r := range m.reminders {
			if r.OpenKey == reminder.OpenKey {
				return fmt.Errorf("reminder %s: %w", reminder.OpenKey, ErrDuplicate)
			}
		}
	}
	m.reminders = append(m.reminders, *reminder)
	return nil
}

func (m *MemoryStore) HasOpenTaskReminder(_ context.Context, vehicleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reminders {
		if r.VehicleID == vehicleID && r.ServiceTaskID != "" && r.Status.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) HasOpenReminderForTask(_ context.Context, vehicleID, serviceTaskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reminders {
		if r.VehicleID == vehicleID && r.ServiceTaskID == serviceTaskID && r.Status.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) FindOverdueReminders(_ context.Context, now time.Time) ([]models.ServiceReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ServiceReminder
	for _, r := range m.reminders {
		if r.Status.IsOpen() && r.NextDue != nil && r.NextDue.Before(now) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextDue.Before(*out[j].NextDue) })
	return out, nil
}

func (m *MemoryStore) MarkOverdueReminders(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.reminders {
		r := &m.reminders[i]
		if r.Status == models.ReminderActive && r.NextDue != nil && r.NextDue.Before(now) {
			r.Status = models.ReminderOverdue
			r.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CompleteReminder(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reminders {
		r := &m.reminders[i]
		if r.ID == id && r.Status.IsOpen() {
			r.Status = models.ReminderCompleted
			r.OpenKey = ""
			r.UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("open reminder %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) DeleteCompletedReminders(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.reminders[:0]
	var n int64
	for _, r := range m.reminders {
		if r.Status == models.ReminderCompleted && r.UpdatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.reminders = kept
	return n, nil
}

func (m *MemoryStore) InsertRenewal(_ context.Context, renewal *models.VehicleRenewal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if renewal.ID == "" {
		renewal.ID = newID()
	}
	renewal.OpenKey = ""
	if renewal.Status.IsOpen() {
		renewal.OpenKey = models.RenewalOpenKey(renewal.VehicleID, renewal.Type)
		for _, r := range m.renewals {
			if r.OpenKey == renewal.OpenKey {
				return fmt.Errorf("renewal %s: %w", renewal.OpenKey, ErrDuplicate)
			}
		}
	}
	m.renewals = append(m.renewals, *renewal)
	return nil
}

func (m *MemoryStore) HasOpenRenewal(_ context.Context, vehicleID string, renewalType models.RenewalType) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.renewals {
		if r.VehicleID == vehicleID && r.Type == renewalType && r.Status.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) FindOverdueRenewals(_ context.Context, now time.Time) ([]models.VehicleRenewal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.VehicleRenewal
	for _, r := range m.renewals {
		if r.Status.IsOpen() && r.DueDate.Before(now) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (m *MemoryStore) MarkOverdueRenewals(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.renewals {
		r := &m.renewals[i]
		if r.Status == models.RenewalDue && r.DueDate.Before(now) {
			r.Status = models.RenewalOverdue
			r.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CompleteRenewal(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.renewals {
		r := &m.renewals[i]
		if r.ID == id && r.Status.IsOpen() {
			r.Status = models.RenewalCompleted
			r.OpenKey = ""
			r.UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("open renewal %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) DeleteCompletedRenewals(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.renewals[:0]
	var n int64
	for _, r := range m.renewals {
		if r.Status == models.RenewalCompleted && r.UpdatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.renewals = kept
	return n, nil
}

func (m *MemoryStore) InsertNotification(_ context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if notification.ID == "" {
		notification.ID = newID()
	}
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *MemoryStore) FindNotifications(_ context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) MarkNotificationRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.notifications {
		if m.notifications[i].UserID == userID && !m.notifications[i].Read {
			m.notifications[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountUnreadNotifications(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, notif := range m.notifications {
		if notif.UserID == userID && !notif.Read {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) DeleteReadNotifications(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.notifications[:0]
	var n int64
	for _, notif := range m.notifications {
		if notif.Read && notif.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, notif)
	}
	m.notifications = kept
	return n, nil
}

// Reminders returns a snapshot of every stored reminder.
func (m *MemoryStore) Reminders() []models.ServiceReminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ServiceReminder(nil), m.reminders...)
}

// Renewals returns a snapshot of every stored renewal.
func (m *MemoryStore) Renewals() []models.VehicleRenewal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.VehicleRenewal(nil), m.renewals...)
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*MongoStore)(nil)
