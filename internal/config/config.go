// Package config reads the job configuration from the environment, after
// loading an optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hmanprod/fleetmada/internal/reminders"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string

	DaysInAdvance           int
	FromServicePrograms     bool
	FromServiceEntries      bool
	VehicleRenewals         bool
	NewVehiclesOnly         bool
	ReminderCleanupDays     int
	NotificationCleanupDays int

	RunInterval time.Duration
	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// Load reads .env when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "fleet"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "fleet-reminders"),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "fleet/notifications"),

		DaysInAdvance:           getInt("REMINDER_DAYS_IN_ADVANCE", reminders.DefaultDaysInAdvance),
		FromServicePrograms:     getBool("REMINDER_FROM_PROGRAMS", true),
		FromServiceEntries:      getBool("REMINDER_FROM_SERVICE_ENTRIES", true),
		VehicleRenewals:         getBool("REMINDER_VEHICLE_RENEWALS", true),
		NewVehiclesOnly:         getBool("REMINDER_NEW_VEHICLES_ONLY", false),
		ReminderCleanupDays:     getInt("REMINDER_CLEANUP_DAYS", reminders.DefaultCleanupDays),
		NotificationCleanupDays: getInt("NOTIFICATION_CLEANUP_DAYS", 30),

		RunInterval: getDuration("RUN_INTERVAL", time.Hour),
		MetricsAddr: getEnv("METRICS_ADDR", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}
}

// Generation returns the generator configuration.
func (c *Config) Generation() reminders.Config {
	return reminders.Config{
		GenerateFromServicePrograms:    c.FromServicePrograms,
		GenerateFromLastServiceEntries: c.FromServiceEntries,
		GenerateVehicleRenewals:        c.VehicleRenewals,
		DaysInAdvance:                  c.DaysInAdvance,
		NewVehiclesOnly:                c.NewVehiclesOnly,
	}
}

// ConfigureLogger applies LOG_LEVEL and LOG_FORMAT to logger.
func (c *Config) ConfigureLogger(logger *log.Logger) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithField("value", c.LogLevel).Warn("Invalid LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": v}).Warn("Invalid integer, using default")
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": v}).Warn("Invalid boolean, using default")
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.WithFields(log.Fields{"key": key, "value": v}).Warn("Invalid duration, using default")
		return defaultValue
	}
	return d
}
