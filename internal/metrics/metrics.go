// Package metrics holds the Prometheus collectors of the reminder jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationOutcomes counts generator outcomes by pass and status
	// (created, skipped, failed).
	GenerationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_reminder_generation_outcomes_total",
			Help: "Outcomes of reminder and renewal generation per pass",
		},
		[]string{"pass", "status"},
	)

	StatusPromotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_status_promotions_total",
			Help: "Reminders and renewals promoted to OVERDUE",
		},
		[]string{"kind"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_notifications_created_total",
			Help: "Notifications written to the store",
		},
		[]string{"type"},
	)

	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_notifications_suppressed_total",
			Help: "Overdue notifications skipped because of a live de-duplication claim",
		},
		[]string{"subject"},
	)

	RecordsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_records_deleted_total",
			Help: "Records removed by cleanup tasks",
		},
		[]string{"kind"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fleet_job_task_duration_seconds",
			Help: "Duration of reminder job tasks in seconds",
		},
		[]string{"task"},
	)

	TaskFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_job_task_failures_total",
			Help: "Reminder job tasks that returned an error",
		},
		[]string{"task"},
	)
)
