package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/hmanprod/fleetmada/internal/db"
	"github.com/hmanprod/fleetmada/internal/metrics"
	"github.com/hmanprod/fleetmada/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateReminderStatuses(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	now := day(2024, 7, 2)
	justPast := now.Add(-time.Second)
	future := now.Add(time.Hour)

	require.NoError(t, store.InsertReminder(ctx, &models.ServiceReminder{VehicleID: "v1", ServiceTaskID: "t1", Status: models.ReminderActive, NextDue: &justPast}))
	require.NoError(t, store.InsertReminder(ctx, &models.ServiceReminder{VehicleID: "v1", ServiceTaskID: "t2", Status: models.ReminderActive, NextDue: &future}))
	require.NoError(t, store.InsertReminder(ctx, &models.ServiceReminder{VehicleID: "v1", ServiceTaskID: "t3", Status: models.ReminderActive}))
	require.NoError(t, store.InsertRenewal(ctx, &models.VehicleRenewal{VehicleID: "v1", Type: models.RenewalInsurance, Status: models.RenewalDue, DueDate: justPast}))
	require.NoError(t, store.InsertRenewal(ctx, &models.VehicleRenewal{VehicleID: "v1", Type: models.RenewalRegistration, Status: models.RenewalDue, DueDate: future}))

	promoted := testutil.ToFloat64(metrics.StatusPromotions.WithLabelValues("reminder"))
	gen, _, _ := newTestGenerator(store, now)
	result, err := gen.UpdateReminderStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusResult{OverdueReminders: 1, OverdueRenewals: 1}, result)
	assert.Equal(t, promoted+1, testutil.ToFloat64(metrics.StatusPromotions.WithLabelValues("reminder")))

	statuses := map[string]models.ReminderStatus{}
	for _, r := range store.Reminders() {
		statuses[r.ServiceTaskID] = r.Status
	}
	assert.Equal(t, models.ReminderOverdue, statuses["t1"])
	assert.Equal(t, models.ReminderActive, statuses["t2"])
	assert.Equal(t, models.ReminderActive, statuses["t3"], "reminders without due date stay active")

	for _, r := range store.Renewals() {
		if r.Type == models.RenewalInsurance {
			assert.Equal(t, models.RenewalOverdue, r.Status)
		} else {
			assert.Equal(t, models.RenewalDue, r.Status)
		}
	}

	// Already overdue records are not counted again.
	result, err = gen.UpdateReminderStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusResult{}, result)
}

func TestCleanupOldReminders(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	now := day(2024, 7, 2)

	old := &models.ServiceReminder{VehicleID: "v1", ServiceTaskID: "t1", Status: models.ReminderActive}
	recent := &models.ServiceReminder{VehicleID: "v1", ServiceTaskID: "t2", Status: models.ReminderActive}
	open := &models.ServiceReminder{VehicleID: "v1", ServiceTaskID: "t3", Status: models.ReminderActive}
	for _, r := range []*models.ServiceReminder{old, recent, open} {
		require.NoError(t, store.InsertReminder(ctx, r))
	}
	require.NoError(t, store.CompleteReminder(ctx, old.ID, now.AddDate(0, 0, -91)))
	require.NoError(t, store.CompleteReminder(ctx, recent.ID, now.AddDate(0, 0, -89)))

	renewal := &models.VehicleRenewal{VehicleID: "v1", Type: models.RenewalInsurance, Status: models.RenewalDue}
	require.NoError(t, store.InsertRenewal(ctx, renewal))
	require.NoError(t, store.CompleteRenewal(ctx, renewal.ID, now.AddDate(0, 0, -120)))

	gen, _, _ := newTestGenerator(store, now)
	result, err := gen.CleanupOldReminders(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{RemindersDeleted: 1, RenewalsDeleted: 1}, result)

	ids := map[string]bool{}
	for _, r := range store.Reminders() {
		ids[r.ID] = true
	}
	assert.Equal(t, map[string]bool{recent.ID: true, open.ID: true}, ids)

	result, err = gen.CleanupOldReminders(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RemindersDeleted)
}
