package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hmanprod/fleetmada/internal/config"
	"github.com/hmanprod/fleetmada/internal/db"
	"github.com/hmanprod/fleetmada/internal/dedup"
	"github.com/hmanprod/fleetmada/internal/metrics"
	"github.com/hmanprod/fleetmada/internal/notify"
	"github.com/hmanprod/fleetmada/internal/reminders"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	taskAll      = "all"
	taskGenerate = "generate"
	taskStatuses = "statuses"
	taskNotify   = "notify"
	taskCleanup  = "cleanup"
)

// allTasks is the order of a full run.
var allTasks = []string{taskGenerate, taskStatuses, taskNotify, taskCleanup}

type job struct {
	generator *reminders.Generator
	notifier  *notify.Service
	cfg       *config.Config
	log       log.FieldLogger
}

// run executes one task, or every task in order for "all". A failing task
// does not prevent the following ones.
func (j *job) run(ctx context.Context, task string) error {
	if task == taskAll {
		var errs []error
		for _, t := range allTasks {
			if err := j.run(ctx, t); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	start := time.Now()
	err := j.runTask(ctx, task)
	metrics.TaskDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
	entry := j.log.WithFields(log.Fields{"task": task, "duration": time.Since(start)})
	if err != nil {
		metrics.TaskFailures.WithLabelValues(task).Inc()
		entry.WithError(err).Error("Task failed")
		return fmt.Errorf("%s: %w", task, err)
	}
	entry.Info("Task completed")
	return nil
}

func (j *job) runTask(ctx context.Context, task string) error {
	switch task {
	case taskGenerate:
		_, err := j.generator.GenerateAllReminders(ctx, j.cfg.Generation())
		return err
	case taskStatuses:
		_, err := j.generator.UpdateReminderStatuses(ctx)
		return err
	case taskNotify:
		_, errReminders := j.notifier.CheckOverdueReminders(ctx)
		_, errRenewals := j.notifier.CheckOverdueRenewals(ctx)
		return errors.Join(errReminders, errRenewals)
	case taskCleanup:
		_, errReminders := j.generator.CleanupOldReminders(ctx, j.cfg.ReminderCleanupDays)
		_, errNotifications := j.notifier.CleanupOldNotifications(ctx, j.cfg.NotificationCleanupDays)
		return errors.Join(errReminders, errNotifications)
	default:
		return fmt.Errorf("unknown task %q", task)
	}
}

// loop runs task immediately and then every interval until ctx is done.
// Task errors are logged and do not stop the loop.
func (j *job) loop(ctx context.Context, task string, interval time.Duration) {
	j.log.WithFields(log.Fields{"task": task, "interval": interval}).Info("Starting reminder job loop")
	_ = j.run(ctx, task)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = j.run(ctx, task)
		case <-ctx.Done():
			j.log.Info("Reminder job loop stopped")
			return
		}
	}
}

func validTask(task string) bool {
	if task == taskAll {
		return true
	}
	for _, t := range allTasks {
		if t == task {
			return true
		}
	}
	return false
}

// newLedger prefers Redis when configured and falls back to the Mongo
// dedup collection.
func newLedger(ctx context.Context, cfg *config.Config, database *mongo.Database) (dedup.Ledger, func(), error) {
	if cfg.RedisAddr != "" {
		client := dedup.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		log.WithField("addr", cfg.RedisAddr).Info("Using Redis dedup ledger")
		return dedup.NewRedisLedger(client, ""), func() { client.Close() }, nil
	}
	ledger := &db.MongoLedger{Collection: database.Collection(db.DedupCollection)}
	if err := ledger.EnsureIndexes(ctx); err != nil {
		return nil, nil, err
	}
	log.Info("Using MongoDB dedup ledger")
	return ledger, func() {}, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.WithField("addr", addr).Info("Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()
	return srv
}

func runJob(task string, loop bool) error {
	cfg := config.Load()
	cfg.ConfigureLogger(log.StandardLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	client, err := db.ConnectMongo(connectCtx, cfg.MongoURI)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer client.Disconnect(context.Background())
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	store := db.NewMongoStore(database)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	ledger, closeLedger, err := newLedger(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closeLedger()

	notifier := notify.NewService(store, ledger, nil, nil)
	if cfg.MQTTBroker != "" {
		mqttClient, err := notify.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).Warn("MQTT unavailable, notifications will not be pushed")
		} else {
			defer mqttClient.Disconnect(250)
			notifier.SetPublisher(notify.NewMQTTPublisher(mqttClient, cfg.MQTTTopicPrefix))
		}
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer srv.Close()
	}

	j := &job{
		generator: reminders.NewGenerator(store, nil, nil),
		notifier:  notifier,
		cfg:       cfg,
		log:       log.WithField("component", "reminder_job"),
	}
	if loop {
		j.loop(ctx, task, cfg.RunInterval)
		return nil
	}
	return j.run(ctx, task)
}

func main() {
	task := flag.String("task", taskAll, "task to run: all, generate, statuses, notify or cleanup")
	loop := flag.Bool("loop", false, "repeat the task every RUN_INTERVAL until interrupted")
	flag.Parse()

	if !validTask(*task) {
		fmt.Fprintf(os.Stderr, "unknown task %q\n", *task)
		flag.Usage()
		os.Exit(2)
	}
	if err := runJob(*task, *loop); err != nil {
		log.WithError(err).Error("Reminder job failed")
		os.Exit(1)
	}
}
