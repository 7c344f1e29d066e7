package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/hmanprod/fleetmada/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestMongoStore_NilCollections(t *testing.T) {
	ctx := context.Background()
	store := &MongoStore{}

	assert.ErrorIs(t, store.InsertReminder(ctx, &models.ServiceReminder{}), ErrNilCollection)
	assert.ErrorIs(t, store.InsertRenewal(ctx, &models.VehicleRenewal{}), ErrNilCollection)
	assert.ErrorIs(t, store.InsertNotification(ctx, &models.Notification{}), ErrNilCollection)

	_, err := store.FindVehicles(ctx)
	assert.ErrorIs(t, err, ErrNilCollection)
	_, err = store.HasOpenTaskReminder(ctx, "v1")
	assert.ErrorIs(t, err, ErrNilCollection)
	_, err = store.MarkOverdueReminders(ctx, time.Now())
	assert.ErrorIs(t, err, ErrNilCollection)
	_, err = store.DeleteReadNotifications(ctx, time.Now())
	assert.ErrorIs(t, err, ErrNilCollection)
	assert.ErrorIs(t, store.EnsureIndexes(ctx), ErrNilCollection)

	ledger := &MongoLedger{}
	_, err = ledger.Claim(ctx, "k", time.Now(), time.Hour)
	assert.ErrorIs(t, err, ErrNilCollection)
}

// testStore connects to MONGO_URI and returns a store on a scratch database.
func testStore(t *testing.T) (*MongoStore, *MongoLedger) {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	database := client.Database("test_fleet_reminders")
	require.NoError(t, database.Drop(ctx))

	store := NewMongoStore(database)
	require.NoError(t, store.EnsureIndexes(ctx))
	ledger := &MongoLedger{Collection: database.Collection(DedupCollection)}
	require.NoError(t, ledger.EnsureIndexes(ctx))
	return store, ledger
}

func TestMongoStore_ReminderLifecycle_Integration(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	now := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	reminder := &models.ServiceReminder{
		VehicleID:     "v1",
		ServiceTaskID: "t1",
		Task:          "Vidange moteur",
		Status:        models.ReminderActive,
		Kind:          models.ReminderKindDate,
		NextDue:       &due,
	}
	require.NoError(t, store.InsertReminder(ctx, reminder))
	err := store.InsertReminder(ctx, &models.ServiceReminder{VehicleID: "v1", ServiceTaskID: "t1", Status: models.ReminderActive})
	assert.ErrorIs(t, err, ErrDuplicate)

	ok, err := store.HasOpenReminderForTask(ctx, "v1", "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := store.MarkOverdueReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	overdue, err := store.FindOverdueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, models.ReminderOverdue, overdue[0].Status)

	require.NoError(t, store.CompleteReminder(ctx, reminder.ID, now))
	var raw bson.M
	require.NoError(t, store.Reminders.FindOne(ctx, bson.M{"_id": reminder.ID}).Decode(&raw))
	_, hasKey := raw["open_key"]
	assert.False(t, hasKey, "open_key must be unset once completed")

	deleted, err := store.DeleteCompletedReminders(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestMongoStore_Notifications_Integration(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	n := &models.Notification{UserID: "u1", Title: "t", Type: models.NotificationReminderOverdue}
	require.NoError(t, store.InsertNotification(ctx, n))

	count, err := store.CountUnreadNotifications(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, store.MarkNotificationRead(ctx, n.ID, "u2"), ErrNotFound)
	require.NoError(t, store.MarkNotificationRead(ctx, n.ID, "u1"))

	deleted, err := store.DeleteReadNotifications(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestMongoLedger_Claim_Integration(t *testing.T) {
	_, ledger := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	ok, err := ledger.Claim(ctx, "u1:v1:oil", now, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Claim(ctx, "u1:v1:oil", now.Add(time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "live claim must block")

	ok, err = ledger.Claim(ctx, "u1:v1:oil", now.Add(25*time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "expired claim is taken over")

	require.NoError(t, ledger.Release(ctx, "u1:v1:oil"))
	ok, err = ledger.Claim(ctx, "u1:v1:oil", now.Add(25*time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}
