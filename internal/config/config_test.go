package config

import (
	"testing"
	"time"

	"github.com/hmanprod/fleetmada/internal/reminders"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"MONGO_URI", "MONGO_DB", "REDIS_ADDR", "REMINDER_DAYS_IN_ADVANCE", "REMINDER_FROM_PROGRAMS",
		"REMINDER_FROM_SERVICE_ENTRIES", "REMINDER_VEHICLE_RENEWALS", "REMINDER_NEW_VEHICLES_ONLY",
		"REMINDER_CLEANUP_DAYS", "NOTIFICATION_CLEANUP_DAYS", "RUN_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "fleet", cfg.MongoDB)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 30, cfg.DaysInAdvance)
	assert.Equal(t, 90, cfg.ReminderCleanupDays)
	assert.Equal(t, 30, cfg.NotificationCleanupDays)
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, reminders.DefaultConfig(), cfg.Generation())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MONGO_DB", "fleet_test")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REMINDER_DAYS_IN_ADVANCE", "45")
	t.Setenv("REMINDER_FROM_PROGRAMS", "false")
	t.Setenv("REMINDER_NEW_VEHICLES_ONLY", "true")
	t.Setenv("RUN_INTERVAL", "15m")

	cfg := Load()
	assert.Equal(t, "fleet_test", cfg.MongoDB)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)

	gen := cfg.Generation()
	assert.Equal(t, 45, gen.DaysInAdvance)
	assert.False(t, gen.GenerateFromServicePrograms)
	assert.True(t, gen.GenerateFromLastServiceEntries)
	assert.True(t, gen.NewVehiclesOnly)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REMINDER_DAYS_IN_ADVANCE", "soon")
	t.Setenv("REMINDER_VEHICLE_RENEWALS", "maybe")
	t.Setenv("RUN_INTERVAL", "-5m")

	cfg := Load()
	assert.Equal(t, 30, cfg.DaysInAdvance)
	assert.True(t, cfg.VehicleRenewals)
	assert.Equal(t, time.Hour, cfg.RunInterval)
}

func TestConfigureLogger(t *testing.T) {
	logger := log.New()

	(&Config{LogLevel: "debug", LogFormat: "json"}).ConfigureLogger(logger)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	(&Config{LogLevel: "loud", LogFormat: "text"}).ConfigureLogger(logger)
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)
}
