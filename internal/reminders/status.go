package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hmanprod/fleetmada/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// DefaultCleanupDays is the retention of completed reminders and renewals.
const DefaultCleanupDays = 90

// StatusResult counts the records promoted to OVERDUE.
type StatusResult struct {
	OverdueReminders int64 `json:"overdue_reminders"`
	OverdueRenewals  int64 `json:"overdue_renewals"`
}

// CleanupResult counts the records removed by CleanupOldReminders.
type CleanupResult struct {
	RemindersDeleted int64 `json:"reminders_deleted"`
	RenewalsDeleted  int64 `json:"renewals_deleted"`
}

// UpdateReminderStatuses promotes ACTIVE reminders whose next due date has
// passed and DUE renewals whose due date has passed to OVERDUE. Both
// updates are attempted even when the first one fails.
func (g *Generator) UpdateReminderStatuses(ctx context.Context) (StatusResult, error) {
	now := g.clock.Now()
	var (
		result StatusResult
		errs   []error
		err    error
	)

	result.OverdueReminders, err = g.store.MarkOverdueReminders(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("mark overdue reminders: %w", err))
	}
	result.OverdueRenewals, err = g.store.MarkOverdueRenewals(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("mark overdue renewals: %w", err))
	}

	metrics.StatusPromotions.WithLabelValues("reminder").Add(float64(result.OverdueReminders))
	metrics.StatusPromotions.WithLabelValues("renewal").Add(float64(result.OverdueRenewals))
	g.log.WithFields(log.Fields{
		"overdue_reminders": result.OverdueReminders,
		"overdue_renewals":  result.OverdueRenewals,
	}).Info("Reminder statuses updated")

	return result, errors.Join(errs...)
}

// CleanupOldReminders deletes COMPLETED reminders and renewals last updated
// more than daysOld days ago. A non-positive daysOld uses DefaultCleanupDays.
func (g *Generator) CleanupOldReminders(ctx context.Context, daysOld int) (CleanupResult, error) {
	if daysOld <= 0 {
		daysOld = DefaultCleanupDays
	}
	cutoff := g.clock.Now().Add(-time.Duration(daysOld) * 24 * time.Hour)
	var (
		result CleanupResult
		errs   []error
		err    error
	)

	result.RemindersDeleted, err = g.store.DeleteCompletedReminders(ctx, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete completed reminders: %w", err))
	}
	result.RenewalsDeleted, err = g.store.DeleteCompletedRenewals(ctx, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete completed renewals: %w", err))
	}

	metrics.RecordsDeleted.WithLabelValues("reminder").Add(float64(result.RemindersDeleted))
	metrics.RecordsDeleted.WithLabelValues("renewal").Add(float64(result.RenewalsDeleted))
	g.log.WithFields(log.Fields{
		"reminders_deleted": result.RemindersDeleted,
		"renewals_deleted":  result.RenewalsDeleted,
		"cutoff":            cutoff,
	}).Info("Old reminders cleaned up")

	return result, errors.Join(errs...)
}
