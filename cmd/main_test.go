package main

import (
	"context"
	"testing"
	"time"

	"github.com/hmanprod/fleetmada/internal/clock"
	"github.com/hmanprod/fleetmada/internal/config"
	"github.com/hmanprod/fleetmada/internal/db"
	"github.com/hmanprod/fleetmada/internal/dedup"
	"github.com/hmanprod/fleetmada/internal/models"
	"github.com/hmanprod/fleetmada/internal/notify"
	"github.com/hmanprod/fleetmada/internal/reminders"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(t *testing.T, now time.Time) (*job, *db.MemoryStore, *clock.Fake) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryStore()
	require.NoError(t, store.InsertVehicle(ctx, &models.Vehicle{ID: "v1", UserID: "u1", Name: "Truck 1", Year: 2020}))
	require.NoError(t, store.InsertServiceEntry(ctx, &models.ServiceEntry{
		VehicleID: "v1",
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Tasks:     []models.ServiceTask{{ID: "t1", Name: "Vidange moteur"}},
	}))

	logger, _ := test.NewNullLogger()
	clk := clock.NewFake(now)
	cfg := &config.Config{
		FromServicePrograms:     true,
		FromServiceEntries:      true,
		VehicleRenewals:         true,
		DaysInAdvance:           30,
		ReminderCleanupDays:     90,
		NotificationCleanupDays: 30,
	}
	return &job{
		generator: reminders.NewGenerator(store, clk, logger),
		notifier:  notify.NewService(store, dedup.NewMemoryLedger(), clk, logger),
		cfg:       cfg,
		log:       logger,
	}, store, clk
}

func TestJob_OverdueScenario(t *testing.T) {
	ctx := context.Background()
	j, store, clk := newTestJob(t, time.Date(2024, 6, 25, 0, 0, 0, 0, time.UTC))

	require.NoError(t, j.run(ctx, taskGenerate))
	require.Len(t, store.Reminders(), 1)

	clk.Set(time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, j.run(ctx, taskAll))
	assert.Equal(t, models.ReminderOverdue, store.Reminders()[0].Status)

	notifications, err := store.FindNotifications(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "en retard de 1 jour(s)")

	// A second full run on the same day adds nothing.
	require.NoError(t, j.run(ctx, taskAll))
	notifications, _ = store.FindNotifications(ctx, "u1", false)
	assert.Len(t, notifications, 1)
	assert.Len(t, store.Reminders(), 1)
}

func TestJob_UnknownTask(t *testing.T) {
	j, _, _ := newTestJob(t, time.Now())
	assert.Error(t, j.run(context.Background(), "reindex"))
}

func TestJob_LoopStopsOnCancel(t *testing.T) {
	j, store, _ := newTestJob(t, time.Date(2024, 6, 25, 0, 0, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		j.loop(ctx, taskGenerate, time.Hour)
		close(done)
	}()

	// The first run happens immediately.
	assert.Eventually(t, func() bool { return len(store.Reminders()) == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestValidTask(t *testing.T) {
	for _, task := range []string{"all", "generate", "statuses", "notify", "cleanup"} {
		assert.True(t, validTask(task), task)
	}
	assert.False(t, validTask(""))
	assert.False(t, validTask("telemetry"))
}
